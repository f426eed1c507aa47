package cron

import (
	"context"
	"time"

	"toolhub/config"
	"toolhub/internal/dto"
	"toolhub/internal/service"

	"github.com/google/wire"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

var ProviderSet = wire.NewSet(NewCron, wire.Bind(new(UsageReporter), new(*service.QuotaService)))

// UsageReporter 由 service.QuotaService 實作
type UsageReporter interface {
	ReportUsage(ctx context.Context) ([]*dto.OrgQuotaUsageDto, error)
}

type Cron struct {
	logger   *zap.Logger
	conf     *config.Configuration
	reporter UsageReporter
	server   *cron.Cron
}

// NewCron .
func NewCron(logger *zap.Logger, conf *config.Configuration, reporter UsageReporter) *Cron {
	server := cron.New(
		cron.WithSeconds(),
		cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
	)

	return &Cron{
		logger:   logger,
		conf:     conf,
		reporter: reporter,
		server:   server,
	}
}

func (c *Cron) Run() error {
	if _, err := c.server.AddFunc(c.conf.Quota.ReportSpec(), c.reportUsage); err != nil {
		return err
	}
	c.server.Start()
	return nil
}

// reportUsage 更新 org 月用量 gauge 並送出 fluentd 用量紀錄
func (c *Cron) reportUsage() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	reports, err := c.reporter.ReportUsage(ctx)
	if err != nil {
		c.logger.Warn("quota usage report failed", zap.Error(err))
		return
	}
	c.logger.Debug("quota usage reported", zap.Int("orgs", len(reports)))
}

func (c *Cron) Stop(ctx context.Context) error {
	stopped := c.server.Stop()
	select {
	case <-stopped.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
