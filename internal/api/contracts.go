// Package api provides HTTP handlers for the pactor server.
package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/pactorhq/pactor/internal/models"
)

// ContractHandler serves contract CRUD endpoints.
type ContractHandler struct {
	svc ContractService
	log *logrus.Logger
}

// NewContractHandler creates a ContractHandler with the given service and logger.
func NewContractHandler(svc ContractService, log *logrus.Logger) *ContractHandler {
	return &ContractHandler{svc: svc, log: log}
}

// List handles GET /api/v1/contracts.
func (h *ContractHandler) List(c *gin.Context) {
	orgID := getOrgID(c)
	if orgID == "" {
		return
	}

	filter := models.ContractFilter{
		Status:       models.Status(c.Query("status")),
		Counterparty: c.Query("counterparty"),
		Query:        c.Query("q"),
		Limit:        parseInt(c.DefaultQuery("limit", "50"), 50),
		Offset:       parseOffset(c.DefaultQuery("offset", "0")),
	}

	contracts, hasMore, err := h.svc.ListContracts(c.Request.Context(), orgID, filter)
	if err != nil {
		h.log.WithError(err).Error("listing contracts")
		respondError(c, http.StatusInternalServerError, ErrCodeInternalError, "internal server error")

		return
	}

	c.JSON(http.StatusOK, gin.H{"contracts": contracts, "has_more": hasMore})
}

// Get handles GET /api/v1/contracts/:id.
func (h *ContractHandler) Get(c *gin.Context) {
	contractID := c.Param("id")
	if err := validatePathID(contractID); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, err.Error())

		return
	}

	orgID := getOrgID(c)
	if orgID == "" {
		return
	}

	contract, err := h.svc.GetContract(c.Request.Context(), orgID, contractID)
	if err != nil {
		respondServiceError(c, h.log, err)

		return
	}

	c.JSON(http.StatusOK, contract)
}

// Create handles POST /api/v1/contracts.
func (h *ContractHandler) Create(c *gin.Context) {
	var req models.CreateContractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid request body")

		return
	}

	if err := req.Validate(); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeValidationError, err.Error())

		return
	}

	orgID := getOrgID(c)
	if orgID == "" {
		return
	}

	contract, err := h.svc.CreateContract(c.Request.Context(), orgID, req, getActorID(c))
	if err != nil {
		respondServiceError(c, h.log, err)

		return
	}

	h.log.WithFields(logrus.Fields{"action": "contract.create", "org_id": orgID, "contract_id": contract.ID}).Info("audit")

	c.JSON(http.StatusCreated, contract)
}

// Update handles PUT /api/v1/contracts/:id. Only drafts are updatable;
// changes to tracked fields or the annexure body snapshot a new version.
func (h *ContractHandler) Update(c *gin.Context) {
	contractID := c.Param("id")
	if err := validatePathID(contractID); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, err.Error())

		return
	}

	var req models.UpdateContractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid request body")

		return
	}

	if err := req.Validate(); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeValidationError, err.Error())

		return
	}

	orgID := getOrgID(c)
	if orgID == "" {
		return
	}

	contract, err := h.svc.UpdateContract(c.Request.Context(), orgID, contractID, req, getActorID(c))
	if err != nil {
		respondServiceError(c, h.log, err)

		return
	}

	h.log.WithFields(logrus.Fields{"action": "contract.update", "org_id": orgID, "contract_id": contractID}).Info("audit")

	c.JSON(http.StatusOK, contract)
}
