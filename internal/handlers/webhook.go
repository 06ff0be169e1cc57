package handlers

import (
	"encoding/json"
	"mime"
	"net/http"
	"strings"

	"github.com/nkiryanov/paysms/internal/handlers/render"
	"github.com/nkiryanov/paysms/internal/logger"
)

// SMS forwarder apps disagree on field names, the first non-empty one wins
type smsRequest struct {
	Sender          string `json:"sender"`
	From            string `json:"from"`
	Direccion       string `json:"direccion"`
	DireccionAccent string `json:"dirección"`

	Text    string `json:"text"`
	Message string `json:"message"`
	Body    string `json:"body"`
}

func (s smsRequest) sender() string {
	return firstNonEmpty(s.Sender, s.From, s.Direccion, s.DireccionAccent)
}

func (s smsRequest) text() string {
	return firstNonEmpty(s.Text, s.Message, s.Body)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

// Accepts JSON and form encoded bodies
func bindSMS(r *http.Request) (smsRequest, error) {
	var req smsRequest

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/x-www-form-urlencoded" || mediaType == "multipart/form-data" {
		if err := r.ParseForm(); err != nil {
			return req, err
		}
		req = smsRequest{
			Sender:          r.PostForm.Get("sender"),
			From:            r.PostForm.Get("from"),
			Direccion:       r.PostForm.Get("direccion"),
			DireccionAccent: r.PostForm.Get("dirección"),
			Text:            r.PostForm.Get("text"),
			Message:         r.PostForm.Get("message"),
			Body:            r.PostForm.Get("body"),
		}
		return req, nil
	}

	err := json.NewDecoder(r.Body).Decode(&req)
	return req, err
}

func handleWebhook(rs reconcileService, l logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, err := bindSMS(r)
		if err != nil {
			render.DecodeError(w, err)
			return
		}

		if req.text() == "" {
			render.FieldErrors(w, map[string]string{"text": "This field is required"})
			return
		}

		outcome, err := rs.Ingest(r.Context(), req.text(), req.sender())
		if err != nil {
			// Non 2xx makes the forwarder retry, replays are idempotent
			renderError(w, r, err, l)
			return
		}

		render.JSON(w, newOutcomeResponse(outcome))
	}
}
