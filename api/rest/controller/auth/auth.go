package auth

import (
	"net/http"
	"strings"

	"github.com/caesium-cloud/cimon/api/rest/controller/respond"
	"github.com/caesium-cloud/cimon/internal/account"
	"github.com/caesium-cloud/cimon/internal/credential"
	"github.com/caesium-cloud/cimon/internal/models"
	"github.com/caesium-cloud/cimon/internal/provider"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type Controller struct {
	accounts *account.Service
	oauth    *credential.OAuth
}

func New(accounts *account.Service, oauth *credential.OAuth) *Controller {
	return &Controller{accounts: accounts, oauth: oauth}
}

// LoginRequest carries the credential to store for a provider.
type LoginRequest struct {
	TokenType    models.TokenType `json:"token_type"`
	AccessToken  string           `json:"access_token"`
	RefreshToken string           `json:"refresh_token"`
	ServerURL    string           `json:"server_url"`
	Username     string           `json:"username"`
	Scope        string           `json:"scope"`
}

// AuthorizeResponse is where the user should be sent to grant access.
type AuthorizeResponse struct {
	URL   string `json:"url"`
	State string `json:"state"`
}

func providerParam(c echo.Context) (models.Provider, error) {
	p, err := models.ParseProvider(c.Param("provider"))
	if err != nil {
		return "", respond.BadRequest(err)
	}
	return p, nil
}

func (ctrl *Controller) Status(c echo.Context) error {
	statuses, err := ctrl.accounts.Statuses(c.Request().Context())
	if err != nil {
		return respond.Error(c, err)
	}
	return c.JSON(http.StatusOK, statuses)
}

func (ctrl *Controller) Login(c echo.Context) error {
	p, err := providerParam(c)
	if err != nil {
		return err
	}

	req := new(LoginRequest)
	if err := c.Bind(req); err != nil {
		return err
	}

	cred := &provider.Credential{
		Provider:     p,
		TokenType:    req.TokenType,
		AccessToken:  strings.TrimSpace(req.AccessToken),
		RefreshToken: req.RefreshToken,
		Scope:        req.Scope,
		ServerURL:    strings.TrimSpace(req.ServerURL),
		Username:     strings.TrimSpace(req.Username),
	}
	if err := credential.Validate(cred); err != nil {
		return respond.BadRequest(err)
	}

	user, err := ctrl.accounts.Authenticate(c.Request().Context(), cred)
	if err != nil {
		return respond.Error(c, err)
	}

	return c.JSON(http.StatusOK, user)
}

func (ctrl *Controller) Logout(c echo.Context) error {
	p, err := providerParam(c)
	if err != nil {
		return err
	}

	if err := ctrl.accounts.Logout(c.Request().Context(), p); err != nil {
		return respond.Error(c, err)
	}

	return c.NoContent(http.StatusNoContent)
}

func (ctrl *Controller) Authorize(c echo.Context) error {
	p, err := providerParam(c)
	if err != nil {
		return err
	}

	state := c.QueryParam("state")
	if state == "" {
		state = uuid.NewString()
	}

	url, err := ctrl.oauth.AuthorizeURL(p, state)
	if err != nil {
		return respond.Error(c, err)
	}

	return c.JSON(http.StatusOK, AuthorizeResponse{URL: url, State: state})
}
