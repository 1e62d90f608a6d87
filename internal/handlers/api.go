// Package handlers is the HTTP boundary: request bodies are decoded into
// typed structs and schema-validated once here; the services only see
// parsed, well-formed input and apply the business rules.
package handlers

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/talkwave-app/talkwave-backend/internal/apperr"
	"github.com/talkwave-app/talkwave-backend/internal/auth"
	"github.com/talkwave-app/talkwave-backend/internal/middleware"
	"github.com/talkwave-app/talkwave-backend/internal/realtime"
	"github.com/talkwave-app/talkwave-backend/internal/services"
)

var validate = validator.New()

// API bundles the handler dependencies; one instance serves all routes.
type API struct {
	Auth     *services.AuthService
	Users    *services.UserService
	Chats    *services.ChatService
	Messages *services.MessageService
	Uploads  *services.UploadService // nil when Cloudinary is not configured
	Hub      *realtime.Hub
	Bridge   *realtime.Bridge
	Tokens   *auth.JWTManager
	Logger   *slog.Logger
}

// errorBody is the wire shape of every error: message is a string, or a
// list of per-field messages for schema validation failures.
type errorBody struct {
	Message interface{} `json:"message"`
	Status  int         `json:"status"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	ae := apperr.From(err)
	body := errorBody{Message: ae.Message, Status: ae.Status()}
	if len(ae.Fields) > 0 {
		body.Message = ae.Fields
	}
	writeJSON(w, ae.Status(), body)
}

// checkStruct runs validator tags and converts failures into an
// InvalidArgument carrying per-field messages.
func checkStruct(v interface{}) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return apperr.Validation(nil)
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			fields = append(fields, fmt.Sprintf("%s is required", fe.Field()))
		case "email":
			fields = append(fields, fmt.Sprintf("%s must be a valid email", fe.Field()))
		case "min":
			fields = append(fields, fmt.Sprintf("%s must be at least %s characters", fe.Field(), fe.Param()))
		default:
			fields = append(fields, fmt.Sprintf("%s is invalid", fe.Field()))
		}
	}
	return apperr.Validation(fields)
}

// requester pulls the authenticated user id set by the auth middleware.
func requester(r *http.Request) (primitive.ObjectID, bool) {
	return middleware.UserID(r.Context())
}

func errNotSignedIn() error {
	return apperr.New(apperr.Unauthenticated, "You are not signed in!")
}

// parseIDs converts hex ids, failing with the given message on any
// malformed entry.
func parseIDs(raw []string, message string) ([]primitive.ObjectID, error) {
	ids := make([]primitive.ObjectID, 0, len(raw))
	for _, s := range raw {
		id, err := primitive.ObjectIDFromHex(s)
		if err != nil {
			return nil, apperr.Invalid(message)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
