package dto

type SearchAppsDto struct {
	Intent     string   `form:"intent"`
	Categories []string `form:"categories"`
	Limit      int64    `form:"limit" binding:"omitempty,min=1,max=100"`
	Offset     int64    `form:"offset" binding:"omitempty,min=0"`
	// 只列出本專案已連結的 app
	AllowedAppsOnly bool `form:"allowedAppsOnly"`
}

type SearchFunctionsDto struct {
	Intent   string   `form:"intent"`
	AppNames []string `form:"appNames"`
	Limit    int64    `form:"limit" binding:"omitempty,min=1,max=100"`
	Offset   int64    `form:"offset" binding:"omitempty,min=0"`
}

func (d *SearchAppsDto) Page() (int64, int64) {
	return pageOrDefault(d.Limit, d.Offset)
}

func (d *SearchFunctionsDto) Page() (int64, int64) {
	return pageOrDefault(d.Limit, d.Offset)
}

func pageOrDefault(limit, offset int64) (int64, int64) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
