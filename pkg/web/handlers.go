// Package web provides HTTP handlers and REST API endpoints for bundle generation.
package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"

	"github.com/dukex/bundlegen/pkg/bundle"
	"github.com/dukex/bundlegen/pkg/services"
)

type APIHandlers struct {
	bundleService *services.Bundle
	validator     *validator.Validate
}

func NewAPIHandlers(bundleService *services.Bundle, validator *validator.Validate) *APIHandlers {
	return &APIHandlers{
		bundleService: bundleService,
		validator:     validator,
	}
}

func (h *APIHandlers) GetWorkflows(c fiber.Ctx) error {
	limit := 100

	if limitStr := c.Query("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed <= 0 {
			return badRequest(c, "Invalid limit parameter")
		}

		limit = parsed
	}

	summaries, err := h.bundleService.ListWorkflows(c.Context(), limit)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"workflows": summaries,
		"count":     len(summaries),
	})
}

func (h *APIHandlers) GetWorkflow(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Workflow ID is required")
	}

	workflow, err := h.bundleService.GetWorkflow(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(workflow)
}

func (h *APIHandlers) GenerateBundle(c fiber.Ctx) error {
	var req GenerateBundleRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return badRequest(c, "Invalid request body: "+err.Error())
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, "Invalid request: "+err.Error())
	}

	resp, err := h.bundleService.Generate(c.Context(), services.GenerateRequest{
		WorkflowID:          req.WorkflowID,
		BundleName:          req.BundleName,
		TargetEnvironment:   req.TargetEnvironment,
		IncludeDependencies: req.IncludeDependencies,
		ResourcesOnly:       req.ResourcesOnly,
	})
	if err != nil {
		// Validation failures still carry findings the client should see.
		if errors.Is(err, bundle.ErrValidationFailed) && resp != nil {
			return c.Status(fiber.StatusUnprocessableEntity).JSON(GenerateBundleResponse{
				BundleName: bundleNameOf(resp),
				Findings:   resp.Result.Findings,
			})
		}

		return handleServiceError(c, err)
	}

	out := GenerateBundleResponse{
		BundleName: bundleNameOf(resp),
		Content:    resp.Text,
		Findings:   resp.Result.Findings,
	}

	if req.Save {
		if _, err := h.bundleService.SaveBundle(c.Context(), resp); err != nil {
			return handleServiceError(c, err)
		}

		out.Saved = true
	}

	return c.Status(fiber.StatusCreated).JSON(out)
}

func (h *APIHandlers) ValidateBundle(c fiber.Ctx) error {
	var req ValidateBundleRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return badRequest(c, "Invalid request body: "+err.Error())
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, "Invalid request: "+err.Error())
	}

	result, err := h.bundleService.ValidateDocument(c.Context(), req.Content)
	if err != nil {
		var parseErr *bundle.ParseError
		if errors.As(err, &parseErr) {
			return badRequest(c, parseErr.Error())
		}

		return internalError(c, err)
	}

	return c.JSON(ValidateBundleResponse{
		Valid:    result.Valid(),
		Findings: result.Findings,
	})
}

func (h *APIHandlers) GetBundles(c fiber.Ctx) error {
	bundles, err := h.bundleService.ListBundles(c.Context())
	if err != nil {
		return handleServiceError(c, err)
	}

	views := make([]StoredBundleResponse, 0, len(bundles))
	for _, stored := range bundles {
		views = append(views, TransformStoredBundleResponse(stored))
	}

	return c.JSON(fiber.Map{
		"bundles": views,
		"count":   len(views),
	})
}

func (h *APIHandlers) GetBundle(c fiber.Ctx) error {
	name := c.Params("name")
	if name == "" {
		return badRequest(c, "Bundle name is required")
	}

	stored, err := h.bundleService.GetBundle(c.Context(), name)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(stored)
}

func (h *APIHandlers) DeleteBundle(c fiber.Ctx) error {
	name := c.Params("name")
	if name == "" {
		return badRequest(c, "Bundle name is required")
	}

	if err := h.bundleService.DeleteBundle(c.Context(), name); err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	storeCheck, ok := h.bundleService.HealthCheck(c.Context())

	status := "healthy"
	httpStatus := http.StatusOK

	if !ok {
		status = "unhealthy"
		httpStatus = http.StatusInternalServerError
	}

	return c.Status(httpStatus).JSON(fiber.Map{
		"status": status,
		"checks": fiber.Map{
			"store": storeCheck,
		},
	})
}

func bundleNameOf(resp *services.GenerateResponse) string {
	if resp.Document != nil && resp.Document.Bundle != nil {
		return resp.Document.Bundle.Name
	}

	return ""
}
