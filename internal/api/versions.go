package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/pactorhq/pactor/internal/models"
)

// VersionHandler serves version history and changelog endpoints.
type VersionHandler struct {
	svc VersionService
	log *logrus.Logger
}

// NewVersionHandler creates a VersionHandler with the given service and logger.
func NewVersionHandler(svc VersionService, log *logrus.Logger) *VersionHandler {
	return &VersionHandler{svc: svc, log: log}
}

// List handles GET /api/v1/contracts/:id/versions.
func (h *VersionHandler) List(c *gin.Context) {
	contractID := c.Param("id")
	if err := validatePathID(contractID); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, err.Error())

		return
	}

	orgID := getOrgID(c)
	if orgID == "" {
		return
	}

	q := models.VersionListQuery{
		ContractID: contractID,
		Limit:      parseInt(c.DefaultQuery("limit", "50"), 50),
		Offset:     parseOffset(c.DefaultQuery("offset", "0")),
	}

	versions, hasMore, err := h.svc.ListVersions(c.Request.Context(), orgID, q)
	if err != nil {
		respondServiceError(c, h.log, err)

		return
	}

	c.JSON(http.StatusOK, gin.H{"versions": versions, "has_more": hasMore})
}

// Get handles GET /api/v1/contracts/:id/versions/:seq.
func (h *VersionHandler) Get(c *gin.Context) {
	contractID := c.Param("id")
	if err := validatePathID(contractID); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, err.Error())

		return
	}

	seq, err := parseSequence(c.Param("seq"))
	if err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, err.Error())

		return
	}

	orgID := getOrgID(c)
	if orgID == "" {
		return
	}

	version, err := h.svc.GetVersion(c.Request.Context(), orgID, contractID, seq)
	if err != nil {
		respondServiceError(c, h.log, err)

		return
	}

	c.JSON(http.StatusOK, version)
}

// Changelog handles GET /api/v1/contracts/:id/versions/:seq/changelog.
func (h *VersionHandler) Changelog(c *gin.Context) {
	contractID := c.Param("id")
	if err := validatePathID(contractID); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, err.Error())

		return
	}

	seq, err := parseSequence(c.Param("seq"))
	if err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, err.Error())

		return
	}

	orgID := getOrgID(c)
	if orgID == "" {
		return
	}

	entry, err := h.svc.GetChangelog(c.Request.Context(), orgID, contractID, seq)
	if err != nil {
		respondServiceError(c, h.log, err)

		return
	}

	c.JSON(http.StatusOK, entry)
}

// Compare handles GET /api/v1/contracts/:id/compare?from=N&to=M.
// The diff is computed on demand and never persisted.
func (h *VersionHandler) Compare(c *gin.Context) {
	contractID := c.Param("id")
	if err := validatePathID(contractID); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, err.Error())

		return
	}

	fromSeq, err := parseSequence(c.Query("from"))
	if err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, "from must be a positive integer")

		return
	}

	toSeq, err := parseSequence(c.Query("to"))
	if err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, "to must be a positive integer")

		return
	}

	orgID := getOrgID(c)
	if orgID == "" {
		return
	}

	entry, err := h.svc.CompareVersions(c.Request.Context(), orgID, contractID, fromSeq, toSeq)
	if err != nil {
		respondServiceError(c, h.log, err)

		return
	}

	c.JSON(http.StatusOK, entry)
}
