package main

import (
	"context"
	"database/sql"
	"log"
	"net"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver

	"floorlens/api/internal/config"
	"floorlens/api/internal/handle"
	"floorlens/api/internal/measure"
	"floorlens/api/internal/measure/gemini"
	"floorlens/api/internal/measure/wizart"
	"floorlens/api/internal/store"
)

func main() {
	cfg := config.Load()

	// --- Postgres (опционально: без базы сервис меряет, но не кэширует) ---
	var db *sql.DB
	if dsn := resolveDSN(cfg.DatabaseURL); dsn != "" {
		var err error
		db, err = sql.Open("pgx", dsn)
		if err != nil {
			log.Fatalf("sql.Open: %v", err)
		}
		// connection pool tune (нагрузка до ~20 rps)
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(10)
		db.SetConnMaxLifetime(1 * time.Hour)

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := db.PingContext(ctx); err != nil {
			log.Fatalf("db.Ping: %v", err)
		}
		cancel()
		log.Printf("db connected: %s", safeDSNSummary(dsn))
	} else {
		log.Printf("DATABASE_URL is empty: running without measurement cache")
	}

	svc := &measure.Service{}
	if cfg.WizartEnabled() {
		svc.Geometry = wizart.New(cfg.WizartAPIKey, cfg.WizartAPIURL)
	}
	if cfg.GeminiEnabled() {
		svc.Vision = gemini.New(cfg.GeminiAPIKey, cfg.GeminiModel)
	}
	if db != nil {
		repo := store.NewMeasureRepo(db)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := repo.EnsureSchema(ctx); err != nil {
			log.Fatalf("store.EnsureSchema: %v", err)
		}
		cancel()
		svc.Store = repo
	}
	log.Printf("providers: wizart=%v gemini=%v cache=%v", cfg.WizartEnabled(), cfg.GeminiEnabled(), db != nil)

	h := handle.New(svc)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		if db != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := db.PingContext(ctx); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = w.Write([]byte("db: not ok\n" + err.Error()))
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/v1/measure", h.Measure)

	addr := ":" + cfg.Port
	log.Printf("measure-api listening on %s", addr)
	log.Fatal(http.ListenAndServe(addr, mux))
}

// resolveDSN: приоритет у DATABASE_URL, иначе собираем из POSTGRES_*/PG*.
// Пустой результат — осознанный режим без кэша.
func resolveDSN(fromConfig string) string {
	if fromConfig != "" {
		return fromConfig
	}
	host := strings.TrimSpace(os.Getenv("PGHOST"))
	if host == "" {
		return ""
	}
	user := getenvDefault("POSTGRES_USER", "floorlens")
	pass := os.Getenv("POSTGRES_PASSWORD")
	port := getenvDefault("PGPORT", "5432")
	dbname := getenvDefault("POSTGRES_DB", "floorlens")

	u := &url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(user, pass),
		Host:     net.JoinHostPort(host, port),
		Path:     "/" + dbname,
		RawQuery: "sslmode=disable",
	}
	return u.String()
}

func getenvDefault(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

func safeDSNSummary(dsn string) string {
	u, err := url.Parse(dsn)
	if err != nil {
		return "dsn: parse error"
	}
	return u.User.Username() + "@" + u.Host + u.Path
}
