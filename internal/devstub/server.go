// devstub — локальная заглушка бэкенда маркетплейса для разработки
// и ручной проверки клиента: логин, обновление токена, записи, ленты
// работ. Состояние целиком в памяти, данные засеиваются при старте.
package devstub

import (
	"log/slog"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/RektefeMaster/mechanic-client/internal/models"
)

// Options — параметры заглушки.
type Options struct {
	Logger *slog.Logger
	// JWTSecret — ключ подписи выпускаемых access-токенов (HS256).
	JWTSecret string
	// AccessTTL — срок жизни access-токена.
	AccessTTL time.Duration
	// RefreshTTL — срок жизни refresh-токена.
	RefreshTTL time.Duration
	// FlakyAuth: первый запрос с каждым access-токеном получает 401.
	// Режим для ручной проверки координатора обновления токена.
	FlakyAuth bool
}

// refreshSession — выданный refresh-токен.
type refreshSession struct {
	userID    string
	expiresAt time.Time
}

// Server — in-memory заглушка бэкенда.
type Server struct {
	opts Options
	log  *slog.Logger

	mu           sync.Mutex
	userIDs      map[string]string // email -> user id
	sessions     map[string]refreshSession
	seenTokens   map[string]bool // для FlakyAuth
	appointments map[string]*models.Appointment
	jobs         []models.Job
	ratings      []models.Rating
	profiles     map[string]*models.MechanicProfile
}

// New создаёт заглушку и засеивает демо-данные.
func New(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	if opts.JWTSecret == "" {
		opts.JWTSecret = "devstub-secret"
	}

	if opts.AccessTTL <= 0 {
		opts.AccessTTL = 15 * time.Minute
	}

	if opts.RefreshTTL <= 0 {
		opts.RefreshTTL = 720 * time.Hour
	}

	s := &Server{
		opts:         opts,
		log:          opts.Logger,
		userIDs:      map[string]string{},
		sessions:     map[string]refreshSession{},
		seenTokens:   map[string]bool{},
		appointments: map[string]*models.Appointment{},
		profiles:     map[string]*models.MechanicProfile{},
	}

	s.seed()

	return s
}

// Router собирает http.Handler с chi и подключёнными middleware/роутами.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()

	// Middleware (внешний -> внутренний).
	r.Use(
		s.recoverer(), // безопасно ловим паники
		requestID(),   // формируем/прокидываем X-Request-Id (до логирования!)
		s.logging(),   // лог запроса: метод/путь/статус/длительность
	)

	// Публичные маршруты.
	r.Post("/auth/login", s.handleLogin)
	r.Post("/auth/refresh-token", s.handleRefresh)

	// Маршруты под bearer-авторизацией.
	r.Group(func(pr chi.Router) {
		pr.Use(s.authBearer())

		pr.Post("/auth/logout", s.handleLogout)

		pr.Get("/appointments/mechanic", s.handleAppointments)
		pr.Get("/appointments/{id}", s.handleAppointmentByID)
		pr.Put("/appointments/{id}/status", s.handleAppointmentStatus)

		pr.Get("/mechanic/me", s.handleProfile)
		pr.Put("/mechanic/me", s.handleProfileUpdate)
		pr.Get("/mechanic/ratings", s.handleRatings)

		pr.Get("/jobs/{kind}", s.handleJobs)
	})

	return r
}

// seed наполняет заглушку демонстрационными данными.
func (s *Server) seed() {
	uid := uuid.NewString()
	s.userIDs["mechanic@demo.local"] = uid
	s.profiles[uid] = &models.MechanicProfile{
		ID:          uid,
		Name:        "Demo",
		Surname:     "Mechanic",
		Email:       "mechanic@demo.local",
		Phone:       "+90 555 000 00 00",
		ShopName:    "Demo Garage",
		City:        "Istanbul",
		Specialties: []string{"engine", "brakes"},
		Rating:      4.8,
		JobCount:    42,
	}

	now := time.Now().UTC()

	appts := []*models.Appointment{
		{
			ID:           uuid.NewString(),
			CustomerName: "A. Customer",
			VehicleBrand: "Renault",
			VehicleModel: "Clio",
			VehiclePlate: "34 ABC 123",
			ServiceType:  "maintenance",
			Status:       models.AppointmentPending,
			ScheduledAt:  now.Add(24 * time.Hour),
		},
		{
			ID:           uuid.NewString(),
			CustomerName: "B. Customer",
			VehicleBrand: "Fiat",
			VehicleModel: "Egea",
			VehiclePlate: "06 XYZ 456",
			ServiceType:  "brake-repair",
			Status:       models.AppointmentConfirmed,
			ScheduledAt:  now.Add(48 * time.Hour),
		},
	}
	for _, a := range appts {
		s.appointments[a.ID] = a
	}

	s.jobs = []models.Job{
		{ID: uuid.NewString(), Kind: models.JobWash, CustomerName: "C. Customer", Location: "Kadikoy", Status: "open", Price: 350, CreatedAt: now},
		{ID: uuid.NewString(), Kind: models.JobTire, CustomerName: "D. Customer", Location: "Besiktas", Status: "open", Price: 800, CreatedAt: now},
		{ID: uuid.NewString(), Kind: models.JobTowing, CustomerName: "E. Customer", Location: "Sisli", Status: "open", Price: 1500, CreatedAt: now},
	}

	s.ratings = []models.Rating{
		{ID: uuid.NewString(), AppointmentID: appts[1].ID, Score: 5, Comment: "Hizli ve temiz is", CreatedAt: now.Add(-72 * time.Hour)},
	}
}
