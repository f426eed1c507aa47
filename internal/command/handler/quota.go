package command

import (
	"encoding/json"

	"toolhub/internal/service"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type QuotaHandler struct {
	logger *zap.Logger
	quota  *service.QuotaService
}

func NewQuotaHandler(logger *zap.Logger, quota *service.QuotaService) *QuotaHandler {
	return &QuotaHandler{logger: logger, quota: quota}
}

// Usage 印出 org 月用量；未指定 org 時列出全部
func (handler *QuotaHandler) Usage(cmd *cobra.Command, orgID string) error {
	if orgID != "" {
		usage, err := handler.quota.OrgUsage(cmd.Context(), orgID)
		if err != nil {
			return err
		}
		return printJSON(cmd, usage)
	}
	reports, err := handler.quota.ReportUsage(cmd.Context())
	if err != nil {
		return err
	}
	return printJSON(cmd, reports)
}

func (handler *QuotaHandler) Reset(cmd *cobra.Command, orgID string) error {
	affected, err := handler.quota.ResetOrgMonthly(cmd.Context(), orgID)
	if err != nil {
		return err
	}
	handler.logger.Info("org monthly quota reset by command", zap.String("orgID", orgID), zap.Int64("projects", affected))
	cmd.Printf("reset %d projects of org %s\n", affected, orgID)
	return nil
}

func printJSON(cmd *cobra.Command, v any) error {
	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
