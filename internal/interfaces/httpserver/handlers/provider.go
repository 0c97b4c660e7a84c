package handlers

import (
	"github.com/rs/zerolog"

	"github.com/reportstack/report-file-api/internal/config"
	domain "github.com/reportstack/report-file-api/internal/domain/reportfile"
)

// Provider wires HTTP handlers.
type Provider struct {
	ReportFile *ReportFileHandler
}

func NewProvider(cfg *config.Config, service *domain.Service, log zerolog.Logger) *Provider {
	return &Provider{
		ReportFile: NewReportFileHandler(cfg, service, log),
	}
}
