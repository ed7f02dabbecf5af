package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
	"github.com/sirupsen/logrus"

	"github.com/pactorhq/pactor/internal/dbpool"
)

// StatsHandler serves the org-level contract statistics endpoint.
type StatsHandler struct {
	pool *dbpool.Pool
	log  *logrus.Logger
}

// NewStatsHandler creates a StatsHandler with the given dependencies.
func NewStatsHandler(pool *dbpool.Pool, log *logrus.Logger) *StatsHandler {
	return &StatsHandler{pool: pool, log: log}
}

// statsResponse is the JSON payload returned by the stats endpoint.
type statsResponse struct {
	Contracts      int            `json:"contracts"`
	ByStatus       map[string]int `json:"by_status"`
	Versions       int            `json:"versions"`
	OpenApprovals  int            `json:"open_approvals"`
	AuditEntries30 int            `json:"audit_entries_30d"`
}

// GetStats handles GET /api/v1/stats.
func (h *StatsHandler) GetStats(c *gin.Context) {
	ctx := c.Request.Context()

	orgID := getOrgID(c)
	if orgID == "" {
		return
	}

	// Read-only transaction with org RLS applied.
	tx, err := h.pool.BeginTx(ctx, pgx.TxOptions{AccessMode: pgx.ReadOnly})
	if err != nil {
		h.log.WithError(err).Error("stats: begin tx")
		respondError(c, http.StatusInternalServerError, ErrCodeInternalError, "internal server error")
		return
	}
	defer tx.Rollback(ctx) //nolint:errcheck // read-only tx, rollback is cleanup.

	if _, err := tx.Exec(ctx, "SELECT set_config('app.org_id', $1, true)", orgID); err != nil {
		h.log.WithError(err).Error("stats: set org")
		respondError(c, http.StatusInternalServerError, ErrCodeInternalError, "internal server error")
		return
	}

	resp := statsResponse{ByStatus: make(map[string]int)}

	rows, err := tx.Query(ctx, "SELECT status, COUNT(*) FROM contracts GROUP BY status")
	if err != nil {
		h.log.WithError(err).Error("stats: status counts")
		respondError(c, http.StatusInternalServerError, ErrCodeInternalError, "internal server error")
		return
	}
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			rows.Close()
			h.log.WithError(err).Error("stats: scan status count")
			respondError(c, http.StatusInternalServerError, ErrCodeInternalError, "internal server error")
			return
		}
		resp.ByStatus[status] = count
		resp.Contracts += count
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		h.log.WithError(err).Error("stats: status counts")
		respondError(c, http.StatusInternalServerError, ErrCodeInternalError, "internal server error")
		return
	}

	if err := tx.QueryRow(ctx,
		`SELECT
			(SELECT COUNT(*) FROM contract_versions),
			(SELECT COUNT(*) FROM approval_records WHERE status IN ('pending', 'escalated')),
			(SELECT COUNT(*) FROM audit_log WHERE created_at > now() - interval '30 days')`,
	).Scan(&resp.Versions, &resp.OpenApprovals, &resp.AuditEntries30); err != nil {
		h.log.WithError(err).Error("stats: consolidated query")
		respondError(c, http.StatusInternalServerError, ErrCodeInternalError, "internal server error")
		return
	}

	c.JSON(http.StatusOK, resp)
}
