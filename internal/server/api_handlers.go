package server

import (
	"encoding/json"
	"strings"

	"mentorbridge/internal/middleware"
	"mentorbridge/internal/models"
	"mentorbridge/internal/service"
	"mentorbridge/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// termList accepts skills and interests either as a JSON array or as a
// comma-separated string.
type termList []string

func (t *termList) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*t = validation.CleanTerms(list)
		return nil
	}
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*t = validation.SplitTerms(raw)
	return nil
}

// authResponse is returned by register and login on the JSON surface.
type authResponse struct {
	ID    string      `json:"_id"`
	Name  string      `json:"name"`
	Email string      `json:"email"`
	Role  models.Role `json:"role"`
	Token string      `json:"token"`
}

func (s *Server) authResponse(user *models.User) (authResponse, error) {
	tok, err := s.keyring.Issue(user.ID)
	if err != nil {
		return authResponse{}, models.NewInternalError(err)
	}
	return authResponse{
		ID:    user.ID,
		Name:  user.Name,
		Email: user.Email,
		Role:  user.Role,
		Token: tok,
	}, nil
}

func invalidBody() error {
	return models.NewValidationError("Invalid request body")
}

// APIRegister handles POST /users/register
// @Summary Register
// @Description Create a mentor or mentee account and return a bearer token
// @Tags users
// @Accept json
// @Produce json
// @Param request body object{name=string,email=string,password=string,role=string,skills=[]string,interests=[]string,bio=string,experience=string} true "Registration"
// @Success 201 {object} object{_id=string,name=string,email=string,role=string,token=string}
// @Failure 400 {object} models.ErrorResponse
// @Router /users/register [post]
func (s *Server) APIRegister(c *fiber.Ctx) error {
	var req struct {
		Name       string   `json:"name"`
		Email      string   `json:"email"`
		Password   string   `json:"password"`
		Role       string   `json:"role"`
		Skills     termList `json:"skills"`
		Interests  termList `json:"interests"`
		Bio        string   `json:"bio"`
		Experience string   `json:"experience"`
	}
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, invalidBody())
	}

	user, err := s.authService.Register(c.UserContext(), service.RegisterInput{
		Name:       req.Name,
		Email:      req.Email,
		Password:   req.Password,
		Role:       req.Role,
		Skills:     req.Skills,
		Interests:  req.Interests,
		Bio:        req.Bio,
		Experience: req.Experience,
	})
	if err != nil {
		return respondError(c, err)
	}

	resp, err := s.authResponse(user)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(resp)
}

// APILogin handles POST /users/login
// @Summary Log in
// @Tags users
// @Accept json
// @Produce json
// @Param request body object{email=string,password=string} true "Credentials"
// @Success 200 {object} object{_id=string,name=string,email=string,role=string,token=string}
// @Failure 401 {object} models.ErrorResponse
// @Router /users/login [post]
func (s *Server) APILogin(c *fiber.Ctx) error {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, invalidBody())
	}

	user, err := s.authService.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return respondError(c, err)
	}
	resp, err := s.authResponse(user)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(resp)
}

// APIGetProfile handles GET /users/profile
// @Summary Current user's profile
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.User
// @Failure 401 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /users/profile [get]
func (s *Server) APIGetProfile(c *fiber.Ctx) error {
	user, err := s.profileService.GetProfile(c.UserContext(), middleware.UserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(user)
}

// APIUpdateProfile handles PUT /users/profile
// @Summary Update the current user's profile
// @Description Merge patch: omitted or empty fields keep their stored value
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body object{name=string,email=string,bio=string,experience=string,skills=[]string,interests=[]string} true "Profile patch"
// @Success 200 {object} models.User
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /users/profile [put]
func (s *Server) APIUpdateProfile(c *fiber.Ctx) error {
	var req struct {
		Name       string   `json:"name"`
		Email      string   `json:"email"`
		Bio        string   `json:"bio"`
		Experience string   `json:"experience"`
		Skills     termList `json:"skills"`
		Interests  termList `json:"interests"`
	}
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, invalidBody())
	}

	user, err := s.profileService.UpdateProfile(c.UserContext(), middleware.UserID(c), service.ProfilePatch{
		Name:       req.Name,
		Email:      req.Email,
		Bio:        req.Bio,
		Experience: req.Experience,
		Skills:     req.Skills,
		Interests:  req.Interests,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(user)
}

// APIRecommendations handles GET /users/matches
// @Summary Recommended counterparts
// @Description Users of the opposite role sharing at least one term, oldest account first
// @Tags matches
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.User
// @Router /users/matches [get]
func (s *Server) APIRecommendations(c *fiber.Ctx) error {
	ctx := c.UserContext()
	user, err := s.profileService.GetProfile(ctx, middleware.UserID(c))
	if err != nil {
		return respondError(c, err)
	}
	recs, err := s.matchService.Recommend(ctx, user, 0)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(recs)
}

// APIRequestMatch handles POST /users/matches
// @Summary Request a match
// @Tags matches
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body object{targetUserId=string} true "Target user"
// @Success 201 {object} models.Match
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /users/matches [post]
func (s *Server) APIRequestMatch(c *fiber.Ctx) error {
	var req struct {
		TargetUserID string `json:"targetUserId"`
	}
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, invalidBody())
	}
	target := strings.TrimSpace(req.TargetUserID)
	if target == "" {
		return respondError(c, models.NewValidationError("targetUserId is required"))
	}

	match, err := s.matchService.RequestMatch(c.UserContext(), middleware.UserID(c), target)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(match)
}

// APIMyMatches handles GET /users/matches/mine
// @Summary The caller's matches
// @Tags matches
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.Match
// @Router /users/matches/mine [get]
func (s *Server) APIMyMatches(c *fiber.Ctx) error {
	matches, err := s.matchService.ListForUser(c.UserContext(), middleware.UserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(matches)
}

// APIAcceptMatch handles PUT /users/matches/:id/accept
// @Summary Accept a pending match
// @Tags matches
// @Produce json
// @Security BearerAuth
// @Param id path string true "Match ID"
// @Success 200 {object} models.Match
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /users/matches/{id}/accept [put]
func (s *Server) APIAcceptMatch(c *fiber.Ctx) error {
	match, err := s.matchService.AcceptMatch(c.UserContext(), middleware.UserID(c), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(match)
}

// APIDeclineMatch handles PUT /users/matches/:id/decline
// @Summary Decline a pending match
// @Tags matches
// @Produce json
// @Security BearerAuth
// @Param id path string true "Match ID"
// @Success 200 {object} models.Match
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /users/matches/{id}/decline [put]
func (s *Server) APIDeclineMatch(c *fiber.Ctx) error {
	match, err := s.matchService.DeclineMatch(c.UserContext(), middleware.UserID(c), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(match)
}
