package handlers

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/patrickfnielsen/pdpclient/internal/models"
	"github.com/patrickfnielsen/pdpclient/internal/util"
	"github.com/patrickfnielsen/pdpclient/pkg/pdp"
)

// Evaluator is the part of *pdp.Client the routes use.
type Evaluator interface {
	Evaluate(ctx context.Context, payload any) (*pdp.Response, error)
	Endpoint() (string, error)
}

type PdpRoutes struct {
	Client Evaluator
}

func (r *PdpRoutes) PdpCheck(c *fiber.Ctx) error {
	req, valErrs := util.ReadAndValidate[models.DecisionRequest](c)
	if valErrs != nil {
		return c.Status(fiber.StatusBadRequest).JSON(valErrs)
	}

	// make a decision against the remote pdp
	resp, err := r.Client.Evaluate(c.UserContext(), authorizationRequest(c, req))
	if err != nil {
		slog.Error("decision error", slog.String("error", err.Error()))
		return decisionError(err)
	}

	body, err := resp.Map()
	if err != nil {
		slog.Error("decision error", slog.Any("response", resp), slog.String("error", err.Error()))
		return decisionError(err)
	}

	slog.Debug("decision", slog.Any("response", resp))

	response := models.DecisionResponse{StatusCode: resp.StatusCode}
	if id, ok := body.Get("decision_id"); ok {
		response.DecisionID = id.Text()
	}
	if result, ok := body.Get("result"); ok {
		response.Result = result.Interface()
	}

	return c.JSON(response)
}

func (r *PdpRoutes) Health(c *fiber.Ctx) error {
	endpoint, err := r.Client.Endpoint()
	if err != nil {
		return decisionError(err)
	}

	return c.JSON(models.HealthResponse{Status: "ok", Endpoint: endpoint})
}

func authorizationRequest(c *fiber.Ctx, req *models.DecisionRequest) pdp.AuthorizationRequest {
	input := pdp.NewAuthorizationRequest()

	input.Input.Request.Scheme = req.Scheme
	if input.Input.Request.Scheme == "" {
		input.Input.Request.Scheme = c.Protocol()
	}
	input.Input.Request.Method = strings.ToUpper(req.Method)
	input.Input.Request.Path = req.Path
	for k, v := range req.Query {
		input.Input.Request.Query[k] = v
	}
	for k, v := range req.Headers {
		input.Input.Request.Headers[strings.ToLower(k)] = v
	}

	input.Input.Resources.Requirements = append(input.Input.Resources.Requirements, req.Requirements...)
	for k, v := range req.Attributes {
		input.Input.Resources.Attributes[k] = v
	}

	port, _ := strconv.Atoi(c.Port())
	input.Input.Source = pdp.ConnectionTuple{IPAddress: c.IP(), Port: port}
	input.Input.Destination = pdp.ConnectionTuple{IPAddress: req.Destination.IPAddress, Port: req.Destination.Port}

	return input
}

// decisionError maps client errors to the status returned to the caller.
func decisionError(err error) error {
	switch {
	case errors.Is(err, pdp.ErrRetryExhausted):
		return fiber.NewError(fiber.StatusServiceUnavailable, err.Error())
	case errors.Is(err, pdp.ErrMalformedResponse):
		return fiber.NewError(fiber.StatusBadGateway, err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return fiber.NewError(fiber.StatusGatewayTimeout, err.Error())
	}
	return fiber.NewError(fiber.StatusInternalServerError, err.Error())
}
