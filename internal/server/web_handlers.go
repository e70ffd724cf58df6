package server

import (
	"mentorbridge/internal/middleware"
	"mentorbridge/internal/models"
	"mentorbridge/internal/service"
	"mentorbridge/internal/session"
	"mentorbridge/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// dashboardMatch is one row of the dashboard's match table.
type dashboardMatch struct {
	ID            string
	Counterpart   *models.User
	MatchedSkills []string
	Status        models.MatchStatus
	CanDecide     bool
}

// Home renders the landing page.
func (s *Server) Home(c *fiber.Ctx) error {
	return s.render(c, "index", "Mentor Bridge", nil)
}

// LoginPage renders the login form, or sends logged-in users to the dashboard.
func (s *Server) LoginPage(c *fiber.Ctx) error {
	if s.loggedIn(c) {
		return c.Redirect("/dashboard")
	}
	return s.render(c, "login", "Log in", nil)
}

// RegisterPage renders the sign-up form, or sends logged-in users to the dashboard.
func (s *Server) RegisterPage(c *fiber.Ctx) error {
	if s.loggedIn(c) {
		return c.Redirect("/dashboard")
	}
	return s.render(c, "register", "Register", nil)
}

func (s *Server) loggedIn(c *fiber.Ctx) bool {
	sess, err := s.currentSession(c)
	return err == nil && session.UserID(sess) != ""
}

// LoginSubmit checks credentials and opens a browser session.
func (s *Server) LoginSubmit(c *fiber.Ctx) error {
	user, err := s.authService.Login(c.UserContext(), c.FormValue("email"), c.FormValue("password"))
	if err != nil {
		if models.HasCode(err, models.CodeInvalidCredentials) {
			return s.redirectWithFlash(c, session.FlashError, "Invalid email or password", "/login")
		}
		return err
	}
	if err := s.startSession(c, user); err != nil {
		return err
	}
	return s.redirectWithFlash(c, session.FlashSuccess, "You are now logged in", "/dashboard")
}

// RegisterSubmit creates an account from the form and logs it in.
func (s *Server) RegisterSubmit(c *fiber.Ctx) error {
	user, err := s.authService.Register(c.UserContext(), service.RegisterInput{
		Name:       c.FormValue("name"),
		Email:      c.FormValue("email"),
		Password:   c.FormValue("password"),
		Role:       c.FormValue("role"),
		Skills:     validation.SplitTerms(c.FormValue("skills")),
		Interests:  validation.SplitTerms(c.FormValue("interests")),
		Bio:        c.FormValue("bio"),
		Experience: c.FormValue("experience"),
	})
	if err != nil {
		switch models.ErrorCode(err) {
		case models.CodeDuplicateEmail, models.CodeValidation:
			return s.redirectWithFlash(c, session.FlashError, models.PublicMessage(err), "/register")
		}
		return err
	}
	if err := s.startSession(c, user); err != nil {
		return err
	}
	return s.redirectWithFlash(c, session.FlashSuccess, "Registration successful", "/dashboard")
}

func (s *Server) startSession(c *fiber.Ctx, user *models.User) error {
	sess, err := s.currentSession(c)
	if err != nil {
		return err
	}
	return session.Login(sess, user)
}

// Logout destroys the session. A failed destroy is logged and the redirect still happens.
func (s *Server) Logout(c *fiber.Ctx) error {
	sess, err := s.currentSession(c)
	if err == nil {
		err = sess.Destroy()
	}
	if err != nil {
		middleware.Logger.WarnContext(c.UserContext(), "session destroy failed", "error", err.Error())
	}
	c.Locals(localSession, nil)
	return c.Redirect("/")
}

// sessionUser loads the logged-in user. A user deleted since login drops the
// session login and answers nil.
func (s *Server) sessionUser(c *fiber.Ctx) (*models.User, error) {
	user, err := s.profileService.GetProfile(c.UserContext(), middleware.UserID(c))
	if err == nil {
		return user, nil
	}
	if !models.HasCode(err, models.CodeNotFound) {
		return nil, err
	}
	sess, serr := s.currentSession(c)
	if serr != nil {
		return nil, serr
	}
	session.ForgetUser(sess)
	return nil, nil
}

// Dashboard shows recommendations and matches, or the admin view for admins.
func (s *Server) Dashboard(c *fiber.Ctx) error {
	user, err := s.sessionUser(c)
	if err != nil {
		return err
	}
	if user == nil {
		return s.redirectWithFlash(c, session.FlashError, "User not found", "/login")
	}
	if user.IsAdmin() {
		return s.renderAdmin(c, user)
	}

	ctx := c.UserContext()
	recs, err := s.matchService.Recommend(ctx, user, s.config.RecommendationLimit)
	if err != nil {
		return err
	}
	matches, err := s.matchService.ListForUser(ctx, user.ID)
	if err != nil {
		return err
	}

	rows := make([]dashboardMatch, 0, len(matches))
	for i := range matches {
		m := &matches[i]
		rows = append(rows, dashboardMatch{
			ID:            m.ID,
			Counterpart:   m.CounterpartUser(user.ID),
			MatchedSkills: m.MatchedSkills,
			Status:        m.Status,
			CanDecide:     m.Status == models.MatchStatusPending && m.Recipient() == user.ID,
		})
	}

	return s.render(c, "dashboard", "Dashboard", fiber.Map{
		"user":            user,
		"recommendations": recs,
		"matches":         rows,
	})
}

// AdminPage lists every user and match.
func (s *Server) AdminPage(c *fiber.Ctx) error {
	user, err := s.sessionUser(c)
	if err != nil {
		return err
	}
	if user == nil {
		return s.redirectWithFlash(c, session.FlashError, "User not found", "/login")
	}
	return s.renderAdmin(c, user)
}

func (s *Server) renderAdmin(c *fiber.Ctx, admin *models.User) error {
	ctx := c.UserContext()
	users, err := s.profileService.ListUsers(ctx)
	if err != nil {
		return err
	}
	matches, err := s.matchService.ListAll(ctx)
	if err != nil {
		return err
	}
	return s.render(c, "admin", "Admin", fiber.Map{
		"user":    admin,
		"users":   users,
		"matches": matches,
	})
}

// ProfilePage renders the profile form.
func (s *Server) ProfilePage(c *fiber.Ctx) error {
	user, err := s.sessionUser(c)
	if err != nil {
		return err
	}
	if user == nil {
		return s.redirectWithFlash(c, session.FlashError, "User not found", "/login")
	}
	return s.render(c, "profile", "Your profile", fiber.Map{
		"user":    user,
		"profile": user,
	})
}

// ProfileSubmit applies the form as a merge patch.
func (s *Server) ProfileSubmit(c *fiber.Ctx) error {
	user, err := s.profileService.UpdateProfile(c.UserContext(), middleware.UserID(c), service.ProfilePatch{
		Name:       c.FormValue("name"),
		Email:      c.FormValue("email"),
		Bio:        c.FormValue("bio"),
		Experience: c.FormValue("experience"),
		Skills:     validation.SplitTerms(c.FormValue("skills")),
		Interests:  validation.SplitTerms(c.FormValue("interests")),
	})
	if err != nil {
		if models.HasCode(err, models.CodeNotFound) {
			return s.redirectWithFlash(c, session.FlashError, "User not found", "/login")
		}
		return s.redirectWithFlash(c, session.FlashError, flashError(c, err), "/profile")
	}

	sess, err := s.currentSession(c)
	if err != nil {
		return err
	}
	sess.Set(session.KeyName, user.Name)
	return s.redirectWithFlash(c, session.FlashSuccess, "Profile updated successfully", "/profile")
}

// RequestMatchSubmit asks the user named by :id for a match.
func (s *Server) RequestMatchSubmit(c *fiber.Ctx) error {
	_, err := s.matchService.RequestMatch(c.UserContext(), middleware.UserID(c), c.Params("id"))
	if err != nil {
		return s.redirectWithFlash(c, session.FlashError, flashError(c, err), "/dashboard")
	}
	return s.redirectWithFlash(c, session.FlashSuccess, "Match request sent successfully", "/dashboard")
}

// AcceptMatchSubmit accepts the pending match :id.
func (s *Server) AcceptMatchSubmit(c *fiber.Ctx) error {
	if _, err := s.matchService.AcceptMatch(c.UserContext(), middleware.UserID(c), c.Params("id")); err != nil {
		return s.redirectWithFlash(c, session.FlashError, flashError(c, err), "/dashboard")
	}
	return s.redirectWithFlash(c, session.FlashSuccess, "Match accepted", "/dashboard")
}

// DeclineMatchSubmit declines the pending match :id.
func (s *Server) DeclineMatchSubmit(c *fiber.Ctx) error {
	if _, err := s.matchService.DeclineMatch(c.UserContext(), middleware.UserID(c), c.Params("id")); err != nil {
		return s.redirectWithFlash(c, session.FlashError, flashError(c, err), "/dashboard")
	}
	return s.redirectWithFlash(c, session.FlashSuccess, "Match declined", "/dashboard")
}
