package main

import (
	"context"
	"flag"
	"os"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-promo/internal/obs"
	"github.com/noah-isme/backend-promo/internal/promotion"
)

// productNamespace derives stable product ids from names so reseeding updates rows in place.
var productNamespace = uuid.MustParse("6f1c3a52-2d0e-4c1b-9a7e-3f4b8e2d5c10")

type sampleProduct struct {
	Nombre string
	Precio string
}

var sampleProducts = []sampleProduct{
	{"Croquetas Adulto 10kg", "649.00"},
	{"Croquetas Cachorro 4kg", "389.00"},
	{"Shampoo Perro Avena", "129.50"},
	{"Arena Gato Aglomerante", "210.00"},
	{"Juguete Ratón", "59.90"},
	{"Juguete Cuerda", "79.00"},
	{"Hueso Carnaza", "45.00"},
	{"Cama Mediana", "899.00"},
}

func main() {
	if err := godotenv.Load(); err != nil {
		os.Stderr.WriteString("no .env file found, relying on environment variables\n")
	}

	file := flag.String("file", os.Getenv("PROMOTIONS_FILE"), "YAML promotions file to load into promociones")
	tz := flag.String("tz", envOr("TIMEZONE", "America/Mexico_City"), "timezone for date-only validity bounds")
	products := flag.Bool("productos", false, "also seed sample catalog products")
	flag.Parse()

	logger := obs.NewLogger("console", "info")

	dbURL := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if dbURL == "" {
		logger.Fatal().Msg("DATABASE_URL is not set")
	}
	loc, err := time.LoadLocation(*tz)
	if err != nil {
		logger.Fatal().Err(err).Str("tz", *tz).Msg("invalid timezone")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect database")
	}
	defer pool.Close()
	if err := pool.Ping(ctx); err != nil {
		logger.Fatal().Err(err).Msg("ping database")
	}

	if *file != "" {
		seedPromotions(ctx, logger, pool, *file, loc)
	}
	if *products {
		seedProducts(ctx, logger, pool)
	}
	logger.Info().Msg("seeding completed")
}

func seedPromotions(ctx context.Context, logger zerolog.Logger, pool *pgxpool.Pool, path string, loc *time.Location) {
	repo, err := promotion.LoadFile(path, loc)
	if err != nil {
		logger.Fatal().Err(err).Str("file", path).Msg("load promotions")
	}
	writer := promotion.PGWriter{DB: pool}
	seeded := 0
	for _, p := range repo.All() {
		if err := writer.Save(ctx, p); err != nil {
			logger.Error().Err(err).Str("codigo", p.Codigo).Msg("seed promotion")
			continue
		}
		seeded++
	}
	logger.Info().Int("promociones", seeded).Str("file", path).Msg("promotions seeded")
}

func seedProducts(ctx context.Context, logger zerolog.Logger, pool *pgxpool.Pool) {
	for _, p := range sampleProducts {
		id := uuid.NewSHA1(productNamespace, []byte(strings.ToLower(p.Nombre)))
		_, err := pool.Exec(ctx, `
			INSERT INTO productos (id, nombre, precio, activo)
			VALUES ($1, $2, $3::numeric, true)
			ON CONFLICT (id) DO UPDATE SET nombre = EXCLUDED.nombre, precio = EXCLUDED.precio, activo = true`,
			id.String(), p.Nombre, p.Precio)
		if err != nil {
			logger.Error().Err(err).Str("nombre", p.Nombre).Msg("seed product")
		}
	}
	logger.Info().Int("productos", len(sampleProducts)).Msg("products seeded")
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}
