package store

import (
	"context"
	"database/sql"
	"encoding/json"

	"floorlens/api/internal/measure/types"
)

var ErrNotFound = sql.ErrNoRows

// MeasureRepo хранит измерение как JSON-поле при записи генерации:
// простой key-value по generation id, отдельной схемы не нужно.
type MeasureRepo struct{ DB *sql.DB }

func NewMeasureRepo(db *sql.DB) *MeasureRepo { return &MeasureRepo{DB: db} }

// EnsureSchema создаёт таблицу при первом старте (однобазовый деплой без миграций).
func (r *MeasureRepo) EnsureSchema(ctx context.Context) error {
	const q = `
create table if not exists room_measurements (
  generation_id text primary key,
  measure_json  jsonb not null,
  created_at    timestamptz not null default now(),
  updated_at    timestamptz not null default now()
)`
	_, err := r.DB.ExecContext(ctx, q)
	return err
}

func (r *MeasureRepo) Find(ctx context.Context, generationID string) (*types.Measurement, error) {
	const q = `select measure_json from room_measurements where generation_id = $1`
	var js []byte
	if err := r.DB.QueryRowContext(ctx, q, generationID).Scan(&js); err != nil {
		return nil, err
	}
	var m types.Measurement
	if err := json.Unmarshal(js, &m); err != nil {
		// Битый JSON приравниваем к промаху — замер просто повторится.
		return nil, ErrNotFound
	}
	return &m, nil
}

// Save перезаписывает измерение генерации. Гонки конкурентных запросов за один
// generation id оставляем как last-write-wins: данные совещательные.
func (r *MeasureRepo) Save(ctx context.Context, generationID string, m types.Measurement) error {
	js, _ := json.Marshal(m)
	const q = `
insert into room_measurements (generation_id, measure_json)
values ($1, $2)
on conflict (generation_id) do update
set measure_json = excluded.measure_json,
    updated_at = now()`
	_, err := r.DB.ExecContext(ctx, q, generationID, js)
	return err
}
