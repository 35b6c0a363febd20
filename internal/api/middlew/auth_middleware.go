package middlew

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"rehive-autosave/pkg/response"
)

// секретная схема в заголовке Authorization: "secret <WEBHOOK_SECRET>"
const secretScheme = "secret"

const invalidSecretMessage = "Invalid webhook secret."

// RequireWebhookSecret пропускает запрос только с корректным общим секретом.
// Схема сравнивается без учета регистра, сам секрет — за постоянное время.
func RequireWebhookSecret(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			log := GetLogger(r.Context())

			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				log.Warn("webhook без заголовка Authorization")
				response.WriteStatusError(w, log, http.StatusForbidden, invalidSecretMessage)
				return
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || !strings.EqualFold(parts[0], secretScheme) {
				log.Warn("invalid authorization header format")
				response.WriteStatusError(w, log, http.StatusForbidden, invalidSecretMessage)
				return
			}

			token := parts[1]
			if subtle.ConstantTimeCompare([]byte(token), []byte(secret)) != 1 {
				log.Warn("webhook с неверным секретом")
				response.WriteStatusError(w, log, http.StatusForbidden, invalidSecretMessage)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
