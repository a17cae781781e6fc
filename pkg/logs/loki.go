package logs

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/grafana/loki-client-go/loki"
	slogloki "github.com/samber/slog-loki/v3"

	"github.com/Alijeyrad/medtrack_backend/config"
)

// newLokiHandler pushes records to Loki's push API through the batching
// loki client.
func newLokiHandler(cfg *config.Config, level slog.Level) (slog.Handler, error) {
	lc := cfg.Logging.Output.Loki

	endpoint := strings.TrimRight(lc.Endpoint, "/") + "/loki/api/v1/push"
	clientCfg, err := loki.NewDefaultConfig(endpoint)
	if err != nil {
		return nil, fmt.Errorf("loki config: %w", err)
	}
	clientCfg.TenantID = lc.TenantID

	client, err := loki.New(clientCfg)
	if err != nil {
		return nil, fmt.Errorf("loki client: %w", err)
	}

	return slogloki.Option{
		Level:  level,
		Client: client,
	}.NewLokiHandler(), nil
}
