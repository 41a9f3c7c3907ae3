package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/mail"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/linesmerrill/court-case-api/api"
	"github.com/linesmerrill/court-case-api/cases"
	"github.com/linesmerrill/court-case-api/config"
	"github.com/linesmerrill/court-case-api/databases"
	"github.com/linesmerrill/court-case-api/models"
)

const minPasswordLength = 6

// TokenIssuer signs access tokens for authenticated principals
type TokenIssuer interface {
	IssueToken(p models.Principal) (string, time.Time, error)
}

// User exported for testing purposes
type User struct {
	DB     databases.UserDatabase
	Tokens TokenIssuer
}

type tokenResponse struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expiresAt"`
	User      models.User `json:"user"`
}

type passwordChange struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// profileUpdate lists the fields a user may change on a profile
type profileUpdate struct {
	FirstName     *string  `json:"firstName"`
	LastName      *string  `json:"lastName"`
	Phone         *string  `json:"phone"`
	PracticeAreas []string `json:"practiceAreas"`
	CourtNumber   *string  `json:"courtNumber"`
	Department    *string  `json:"department"`
}

// TokenHandler exchanges basic credentials, already checked by the middleware, for a signed token
func (u User) TokenHandler(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	token, expires, err := u.Tokens.IssueToken(p)
	if err != nil {
		config.ErrorStatus("failed to issue token", http.StatusInternalServerError, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	user, err := u.activeUser(r, p.ID)
	if err != nil {
		config.ErrorStatus("failed to get user", http.StatusUnauthorized, w, err)
		return
	}
	now := primitive.NewDateTimeFromTime(time.Now())
	if _, err := u.DB.UpdateOne(ctx, bson.M{"_id": user.ID}, bson.M{"$set": bson.M{"user.lastLogin": now}}); err != nil {
		zap.S().Warnw("failed to record last login",
			"user", p.ID,
			"error", err)
	}

	writeJSON(w, http.StatusOK, tokenResponse{Token: token, ExpiresAt: expires, User: redact(*user)})
}

// RegisterHandler lets a litigant sign themselves up with the user role
func (u User) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	var details models.UserDetails
	if err := json.NewDecoder(r.Body).Decode(&details); err != nil {
		config.ErrorStatus("failed to decode request", http.StatusBadRequest, w, err)
		return
	}
	details.Role = models.RoleUser
	u.createUser(w, r, details)
}

// CreateUserHandler lets a registrar create an account of any role
func (u User) CreateUserHandler(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	if p.Role != models.RoleRegistrar {
		config.ErrorStatus("only registrars can create users", http.StatusForbidden, w, fmt.Errorf("role %q", p.Role))
		return
	}
	var details models.UserDetails
	if err := json.NewDecoder(r.Body).Decode(&details); err != nil {
		config.ErrorStatus("failed to decode request", http.StatusBadRequest, w, err)
		return
	}
	u.createUser(w, r, details)
}

func (u User) createUser(w http.ResponseWriter, r *http.Request, details models.UserDetails) {
	details.Email = strings.ToLower(strings.TrimSpace(details.Email))
	details.FirstName = strings.TrimSpace(details.FirstName)
	details.LastName = strings.TrimSpace(details.LastName)
	if err := validateUser(details); err != nil {
		config.ErrorStatus("invalid user", http.StatusBadRequest, w, err)
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(details.Password), bcrypt.DefaultCost)
	if err != nil {
		config.ErrorStatus("failed to hash password", http.StatusInternalServerError, w, err)
		return
	}
	details.Password = string(hashedPassword)
	now := primitive.NewDateTimeFromTime(time.Now())
	details.IsActive = true
	details.LastLogin = nil
	details.CreatedAt = now
	details.UpdatedAt = now

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	res, err := u.DB.InsertOne(ctx, details)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			config.ErrorStatus("email already exists", http.StatusConflict, w, fmt.Errorf("duplicate email"))
			return
		}
		config.ErrorStatus("failed to insert user", http.StatusInternalServerError, w, err)
		return
	}
	id, _ := res.Decode().(primitive.ObjectID)
	zap.S().Infow("user created",
		"user", id.Hex(),
		"role", details.Role)

	writeJSON(w, http.StatusCreated, redact(models.User{ID: id, Details: details}))
}

func validateUser(d models.UserDetails) error {
	var missing []string
	if d.FirstName == "" {
		missing = append(missing, "firstName")
	}
	if d.LastName == "" {
		missing = append(missing, "lastName")
	}
	if d.Email == "" {
		missing = append(missing, "email")
	}
	if d.Password == "" {
		missing = append(missing, "password")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required fields: %s", strings.Join(missing, ", "))
	}
	if _, err := mail.ParseAddress(d.Email); err != nil {
		return fmt.Errorf("invalid email %q", d.Email)
	}
	if len(d.Password) < minPasswordLength {
		return fmt.Errorf("password must be at least %d characters long", minPasswordLength)
	}
	if !d.Role.Valid() {
		return fmt.Errorf("invalid role %q", d.Role)
	}
	if d.CourtAssignment != "" && !d.CourtAssignment.Valid() {
		return fmt.Errorf("invalid court assignment %q", d.CourtAssignment)
	}
	return nil
}

// MeHandler returns the caller's own profile
func (u User) MeHandler(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	user, err := u.activeUser(r, p.ID)
	if err != nil {
		config.ErrorStatus("user not found", http.StatusNotFound, w, err)
		return
	}
	writeJSON(w, http.StatusOK, redact(*user))
}

// UpdatePasswordHandler changes the caller's password after checking the current one
func (u User) UpdatePasswordHandler(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	var in passwordChange
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		config.ErrorStatus("failed to decode request", http.StatusBadRequest, w, err)
		return
	}
	if len(in.NewPassword) < minPasswordLength {
		config.ErrorStatus("invalid password", http.StatusBadRequest, w,
			fmt.Errorf("password must be at least %d characters long", minPasswordLength))
		return
	}

	user, err := u.activeUser(r, p.ID)
	if err != nil {
		config.ErrorStatus("user not found", http.StatusNotFound, w, err)
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Details.Password), []byte(in.CurrentPassword)); err != nil {
		config.ErrorStatus("current password is incorrect", http.StatusBadRequest, w, err)
		return
	}
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(in.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		config.ErrorStatus("failed to hash password", http.StatusInternalServerError, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	_, err = u.DB.UpdateOne(ctx, bson.M{"_id": user.ID}, bson.M{"$set": bson.M{
		"user.password":  string(hashedPassword),
		"user.updatedAt": primitive.NewDateTimeFromTime(time.Now()),
	}})
	if err != nil {
		config.ErrorStatus("failed to update password", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// UsersHandler lists active users for registrars and judges
func (u User) UsersHandler(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	if p.Role != models.RoleRegistrar && p.Role != models.RoleJudge {
		config.ErrorStatus("access denied", http.StatusForbidden, w, fmt.Errorf("role %q", p.Role))
		return
	}

	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.Atoi(q.Get("limit"))
	if limit < 1 || limit > 100 {
		limit = 10
	}
	filter := bson.M{"user.isActive": true}
	if role := models.Role(q.Get("role")); role != "" {
		if !role.Valid() {
			config.ErrorStatus("invalid role", http.StatusBadRequest, w, fmt.Errorf("unknown role %q", role))
			return
		}
		filter["user.role"] = role
	}
	if search := strings.TrimSpace(q.Get("search")); search != "" {
		pattern := primitive.Regex{Pattern: regexp.QuoteMeta(search), Options: "i"}
		filter["$or"] = []bson.M{
			{"user.firstName": pattern},
			{"user.lastName": pattern},
			{"user.email": pattern},
		}
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	users, err := u.DB.Find(ctx, filter, databases.PaginatedFindOptions(page, limit, "user.createdAt", -1))
	if err != nil {
		config.ErrorStatus("failed to get users", http.StatusInternalServerError, w, err)
		return
	}
	total, err := u.DB.CountDocuments(ctx, filter)
	if err != nil {
		config.ErrorStatus("failed to count users", http.StatusInternalServerError, w, err)
		return
	}

	writeJSON(w, http.StatusOK, struct {
		Users      []models.User    `json:"users"`
		Pagination cases.Pagination `json:"pagination"`
	}{redactAll(users), cases.NewPagination(page, limit, total)})
}

// LawyersHandler lists active lawyers
func (u User) LawyersHandler(w http.ResponseWriter, r *http.Request) {
	if _, ok := principal(w, r); !ok {
		return
	}
	u.directory(w, r, models.RoleLawyer)
}

// JudgesHandler lists active judges for registrars and judges
func (u User) JudgesHandler(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	if p.Role != models.RoleRegistrar && p.Role != models.RoleJudge {
		config.ErrorStatus("access denied", http.StatusForbidden, w, fmt.Errorf("role %q", p.Role))
		return
	}
	u.directory(w, r, models.RoleJudge)
}

func (u User) directory(w http.ResponseWriter, r *http.Request, role models.Role) {
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	users, err := u.DB.Find(ctx, bson.M{"user.role": role, "user.isActive": true},
		databases.PaginatedFindOptions(1, 500, "user.lastName", 1))
	if err != nil {
		config.ErrorStatus(fmt.Sprintf("failed to get %ss", role), http.StatusInternalServerError, w, err)
		return
	}
	writeJSON(w, http.StatusOK, redactAll(users))
}

// UserByIDHandler returns a user's profile
func (u User) UserByIDHandler(w http.ResponseWriter, r *http.Request) {
	if _, ok := principal(w, r); !ok {
		return
	}
	userID := mux.Vars(r)["user_id"]
	zap.S().Debugf("user_id: %v", userID)

	user, err := u.findUser(r, userID)
	if err != nil {
		userLookupError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, redact(*user))
}

// UpdateUserHandler edits profile fields; callers edit themselves unless they are registrars
func (u User) UpdateUserHandler(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	userID := mux.Vars(r)["user_id"]
	if p.ID != userID && p.Role != models.RoleRegistrar {
		config.ErrorStatus("access denied", http.StatusForbidden, w, fmt.Errorf("cannot edit another user"))
		return
	}
	var in profileUpdate
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		config.ErrorStatus("failed to decode request", http.StatusBadRequest, w, err)
		return
	}
	set := bson.M{"user.updatedAt": primitive.NewDateTimeFromTime(time.Now())}
	for field, value := range map[string]*string{
		"user.firstName":   in.FirstName,
		"user.lastName":    in.LastName,
		"user.phone":       in.Phone,
		"user.courtNumber": in.CourtNumber,
		"user.department":  in.Department,
	} {
		if value != nil {
			set[field] = strings.TrimSpace(*value)
		}
	}
	if in.PracticeAreas != nil {
		set["user.practiceAreas"] = in.PracticeAreas
	}

	user, err := u.findUser(r, userID)
	if err != nil {
		userLookupError(w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	if _, err := u.DB.UpdateOne(ctx, bson.M{"_id": user.ID}, bson.M{"$set": set}); err != nil {
		config.ErrorStatus("failed to update user", http.StatusInternalServerError, w, err)
		return
	}
	updated, err := u.findUser(r, userID)
	if err != nil {
		userLookupError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, redact(*updated))
}

// DeactivateUserHandler soft-deletes a user; only registrars may do this
func (u User) DeactivateUserHandler(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	if p.Role != models.RoleRegistrar {
		config.ErrorStatus("only registrars can deactivate users", http.StatusForbidden, w, fmt.Errorf("role %q", p.Role))
		return
	}
	userID := mux.Vars(r)["user_id"]
	uID, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	res, err := u.DB.UpdateOne(ctx, bson.M{"_id": uID}, bson.M{"$set": bson.M{
		"user.isActive":  false,
		"user.updatedAt": primitive.NewDateTimeFromTime(time.Now()),
	}})
	if err != nil {
		config.ErrorStatus("failed to deactivate user", http.StatusInternalServerError, w, err)
		return
	}
	if res.MatchedCount == 0 {
		config.ErrorStatus("user not found", http.StatusNotFound, w, mongo.ErrNoDocuments)
		return
	}
	zap.S().Infow("user deactivated",
		"user", userID,
		"by", p.ID)
	w.WriteHeader(http.StatusNoContent)
}

func (u User) findUser(r *http.Request, userID string) (*models.User, error) {
	uID, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, err
	}
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()
	return u.DB.FindOne(ctx, bson.M{"_id": uID})
}

func (u User) activeUser(r *http.Request, userID string) (*models.User, error) {
	uID, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, err
	}
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()
	return u.DB.FindOne(ctx, bson.M{"_id": uID, "user.isActive": true})
}

func userLookupError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, primitive.ErrInvalidHex):
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
	case errors.Is(err, mongo.ErrNoDocuments):
		config.ErrorStatus("user not found", http.StatusNotFound, w, err)
	default:
		config.ErrorStatus("failed to get user", http.StatusInternalServerError, w, err)
	}
}

// redact strips the password hash before a user leaves the service
func redact(u models.User) models.User {
	u.Details.Password = ""
	return u
}

func redactAll(users []models.User) []models.User {
	out := make([]models.User, 0, len(users))
	for _, u := range users {
		out = append(out, redact(u))
	}
	return out
}
