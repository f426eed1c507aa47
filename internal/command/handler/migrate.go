package command

import (
	"context"
	"time"

	postgresRepo "toolhub/internal/database/postgres/repository"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// MigrateHandler 建立 postgres 額度 ledger 資料表；mongo 索引在 repository 建立時處理
type MigrateHandler struct {
	logger *zap.Logger
	ledger *postgresRepo.QuotaLedgerRepository
}

func NewMigrateHandler(logger *zap.Logger, ledger *postgresRepo.QuotaLedgerRepository) *MigrateHandler {
	return &MigrateHandler{logger: logger, ledger: ledger}
}

func (handler *MigrateHandler) Migrate(cmd *cobra.Command, _ []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()
	if err := handler.ledger.Migrate(ctx); err != nil {
		handler.logger.Error("postgres migrate failed", zap.Error(err))
		return err
	}
	handler.logger.Info("postgres quota ledger schema ready")
	cmd.Println("migrate done")
	return nil
}
