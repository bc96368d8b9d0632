package devstub

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/RektefeMaster/mechanic-client/internal/models"
)

type ctxKey string

const ctxUserID ctxKey = "user_id"

// envelope — единый конверт ответов заглушки, зеркалит контракт бэкенда.
type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func writeOK(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(envelope{Success: true, Data: data})
}

func writeErr(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(envelope{Success: false, Message: msg})
}

// decodeStrict — строгий JSON-декодер: запрещаем неизвестные поля.
func decodeStrict(r *http.Request, value any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(value)
}

type stubClaims struct {
	UserID string `json:"uid"`
	jwt.RegisteredClaims
}

// issueAccessToken выпускает HS256 JWT с настоящим клеймом exp:
// инспектор клиента должен видеть реальный срок действия.
func (s *Server) issueAccessToken(userID string, now time.Time) (string, error) {
	claims := stubClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.opts.AccessTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    "devstub",
			Subject:   userID,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	return token.SignedString([]byte(s.opts.JWTSecret))
}

// issueRefreshToken выпускает непрозрачный refresh-токен и регистрирует сессию.
// Вызывается под s.mu.
func (s *Server) issueRefreshToken(userID string, now time.Time) string {
	rt := uuid.NewString()
	s.sessions[rt] = refreshSession{
		userID:    userID,
		expiresAt: now.Add(s.opts.RefreshTTL),
	}

	return rt
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var in models.LoginRequest
	if err := decodeStrict(r, &in); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if in.Email == "" || in.Password == "" {
		writeErr(w, http.StatusBadRequest, "email and password are required")
		return
	}

	now := time.Now().UTC()

	s.mu.Lock()
	uid, ok := s.userIDs[in.Email]
	if !ok {
		// Заглушка принимает любого: регистрирует пользователя на лету.
		uid = uuid.NewString()
		s.userIDs[in.Email] = uid
		s.profiles[uid] = &models.MechanicProfile{ID: uid, Email: in.Email}
	}
	rt := s.issueRefreshToken(uid, now)
	s.mu.Unlock()

	access, err := s.issueAccessToken(uid, now)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, "token issue failed")
		return
	}

	writeOK(w, models.LoginData{Token: access, RefreshToken: rt, UserID: uid})
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var in models.RefreshRequest
	if err := decodeStrict(r, &in); err != nil || in.RefreshToken == "" {
		writeErr(w, http.StatusBadRequest, "refresh token is required")
		return
	}

	now := time.Now().UTC()

	s.mu.Lock()
	sess, ok := s.sessions[in.RefreshToken]
	if ok {
		// Ротация: старый refresh-токен одноразовый.
		delete(s.sessions, in.RefreshToken)
	}
	var rotated string
	if ok && now.Before(sess.expiresAt) {
		rotated = s.issueRefreshToken(sess.userID, now)
	}
	s.mu.Unlock()

	if rotated == "" {
		writeErr(w, http.StatusUnauthorized, "invalid or expired refresh token")
		return
	}

	access, err := s.issueAccessToken(sess.userID, now)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, "token issue failed")
		return
	}

	// Токен, выданный через refresh, сразу считается «активным» —
	// FlakyAuth ломает только токены из логина, иначе клиент с его
	// лимитом в один повтор никогда бы не восстановился.
	s.mu.Lock()
	s.seenTokens[access] = true
	s.mu.Unlock()

	writeOK(w, models.RefreshData{Token: access, RefreshToken: rotated})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	uid := r.Context().Value(ctxUserID).(string)

	s.mu.Lock()
	for rt, sess := range s.sessions {
		if sess.userID == uid {
			delete(s.sessions, rt)
		}
	}
	s.mu.Unlock()

	writeOK(w, nil)
}

// authBearer проверяет bearer-токен и кладёт user id в контекст.
// В режиме FlakyAuth первый запрос с каждым токеном получает 401 —
// так проверяется прозрачность refresh+retry на живом клиенте.
func (s *Server) authBearer() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const prefix = "Bearer "

			auth := r.Header.Get("Authorization")
			if len(auth) <= len(prefix) || auth[:len(prefix)] != prefix {
				writeErr(w, http.StatusUnauthorized, "missing bearer token")
				return
			}
			raw := auth[len(prefix):]

			if s.opts.FlakyAuth {
				s.mu.Lock()
				seen := s.seenTokens[raw]
				s.seenTokens[raw] = true
				s.mu.Unlock()

				if !seen {
					writeErr(w, http.StatusUnauthorized, "token not yet active")
					return
				}
			}

			claims := &stubClaims{}
			_, err := jwt.ParseWithClaims(raw, claims,
				func(t *jwt.Token) (interface{}, error) {
					return []byte(s.opts.JWTSecret), nil
				},
				jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
				jwt.WithLeeway(5*time.Second),
				jwt.WithIssuer("devstub"),
			)
			if err != nil {
				writeErr(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}

			ctx := context.WithValue(r.Context(), ctxUserID, claims.UserID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func (s *Server) handleAppointments(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	out := make([]models.Appointment, 0, len(s.appointments))
	for _, a := range s.appointments {
		out = append(out, *a)
	}
	s.mu.Unlock()

	writeOK(w, out)
}

func (s *Server) handleAppointmentByID(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	s.mu.Lock()
	a, ok := s.appointments[id]
	var cp models.Appointment
	if ok {
		cp = *a
	}
	s.mu.Unlock()

	if !ok {
		writeErr(w, http.StatusNotFound, "appointment not found")
		return
	}

	writeOK(w, cp)
}

func (s *Server) handleAppointmentStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var upd models.AppointmentStatusUpdate
	if err := decodeStrict(r, &upd); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid request body")
		return
	}

	switch upd.Status {
	case models.AppointmentConfirmed, models.AppointmentRejected, models.AppointmentCompleted:
	default:
		writeErr(w, http.StatusBadRequest, "unsupported status")
		return
	}

	s.mu.Lock()
	a, ok := s.appointments[id]
	if ok {
		a.Status = upd.Status
		if upd.Price > 0 {
			a.Price = upd.Price
		}
		if upd.Reason != "" {
			a.Notes = upd.Reason
		}
	}
	s.mu.Unlock()

	if !ok {
		writeErr(w, http.StatusNotFound, "appointment not found")
		return
	}

	writeOK(w, nil)
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	uid := r.Context().Value(ctxUserID).(string)

	s.mu.Lock()
	p, ok := s.profiles[uid]
	var cp models.MechanicProfile
	if ok {
		cp = *p
	}
	s.mu.Unlock()

	if !ok {
		writeErr(w, http.StatusNotFound, "profile not found")
		return
	}

	writeOK(w, cp)
}

func (s *Server) handleProfileUpdate(w http.ResponseWriter, r *http.Request) {
	uid := r.Context().Value(ctxUserID).(string)

	var upd models.ProfileUpdate
	if err := decodeStrict(r, &upd); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid request body")
		return
	}

	s.mu.Lock()
	p, ok := s.profiles[uid]
	var cp models.MechanicProfile
	if ok {
		if upd.Phone != "" {
			p.Phone = upd.Phone
		}
		if upd.ShopName != "" {
			p.ShopName = upd.ShopName
		}
		if upd.City != "" {
			p.City = upd.City
		}
		if upd.Specialties != nil {
			p.Specialties = upd.Specialties
		}
		cp = *p
	}
	s.mu.Unlock()

	if !ok {
		writeErr(w, http.StatusNotFound, "profile not found")
		return
	}

	writeOK(w, cp)
}

func (s *Server) handleRatings(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	out := make([]models.Rating, len(s.ratings))
	copy(out, s.ratings)
	s.mu.Unlock()

	writeOK(w, out)
}

func (s *Server) handleJobs(w http.ResponseWriter, r *http.Request) {
	kind := chi.URLParam(r, "kind")

	switch kind {
	case models.JobWash, models.JobTire, models.JobTowing:
	default:
		writeErr(w, http.StatusNotFound, "unknown job feed")
		return
	}

	s.mu.Lock()
	out := make([]models.Job, 0, len(s.jobs))
	for _, j := range s.jobs {
		if j.Kind == kind {
			out = append(out, j)
		}
	}
	s.mu.Unlock()

	writeOK(w, out)
}
