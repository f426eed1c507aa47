package request

import (
	"errors"
	"regexp"
	"strings"

	cErr "toolhub/internal/pkg/error"

	"github.com/go-playground/validator/v10"
)

// Validator 由 DTO 實作，key 為 "欄位.規則"，例如 "Protocol.oneof"
type Validator interface {
	GetMessages() ValidatorMessages
}

type ValidatorMessages map[string]string

var indexPattern = regexp.MustCompile(`\[\d+\]`)

// GetError 將 validator 錯誤轉為對外訊息；有多個錯誤時以 "; " 串接
func GetError(request any, err error) *cErr.Error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return cErr.ValidateErr("Parameter error")
	}

	var messages ValidatorMessages
	if v, ok := request.(Validator); ok {
		messages = v.GetMessages()
	}

	seen := make(map[string]struct{}, len(verrs))
	out := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msg := messageFor(messages, fe)
		if _, dup := seen[msg]; dup {
			continue
		}
		seen[msg] = struct{}{}
		out = append(out, msg)
	}
	return cErr.ValidateErr(strings.Join(out, "; "))
}

func messageFor(messages ValidatorMessages, fe validator.FieldError) string {
	if messages != nil {
		// 先比對巢狀路徑 (Items.*.Name)，再比對欄位名
		ns := fe.StructNamespace()
		if i := strings.IndexByte(ns, '.'); i >= 0 {
			ns = ns[i+1:]
		}
		for _, key := range []string{indexPattern.ReplaceAllString(ns, ".*"), indexPattern.ReplaceAllString(fe.Field(), ".*")} {
			if msg, ok := messages[key+"."+fe.Tag()]; ok {
				return msg
			}
		}
	}
	return fe.Error()
}
