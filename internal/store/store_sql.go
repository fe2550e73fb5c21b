package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"math/rand"
	"time"

	"github.com/lingvistik/lingvistik-server/internal/quiz"
)

// SQLStore persists tests, results and bookmarks over database/sql.
// Works against both supported drivers ("sqlite", "postgres"); statements
// stick to the shared placeholder syntax.
type SQLStore struct {
	db     *sql.DB
	driver string
}

func NewSQLStore(db *sql.DB, driver string) *SQLStore {
	return &SQLStore{db: db, driver: driver}
}

func (s *SQLStore) PutTest(ctx context.Context, t quiz.TestVariant) error {
	qj, err := json.Marshal(t.Questions)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO tests (id,language,variant,questions_json,created_at)
		VALUES ($1,$2,$3,$4,$5)
		ON CONFLICT (id) DO UPDATE SET questions_json=EXCLUDED.questions_json`,
		t.Key(), t.Language, t.Variant, string(qj), time.Now().Unix())
	return err
}

func (s *SQLStore) GetTest(ctx context.Context, language string, variant int) (quiz.TestVariant, error) {
	t, err := s.GetTestWithKeys(ctx, language, variant)
	if err != nil {
		return quiz.TestVariant{}, err
	}
	return Sanitize(t), nil
}

func (s *SQLStore) GetTestWithKeys(ctx context.Context, language string, variant int) (quiz.TestVariant, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT language,variant,questions_json FROM tests WHERE language=$1 AND variant=$2`,
		language, variant)
	var t quiz.TestVariant
	var qjson string
	if err := row.Scan(&t.Language, &t.Variant, &qjson); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return quiz.TestVariant{}, ErrNotFound
		}
		return quiz.TestVariant{}, err
	}
	if err := json.Unmarshal([]byte(qjson), &t.Questions); err != nil {
		return quiz.TestVariant{}, err
	}
	return t, nil
}

func (s *SQLStore) RandomTest(ctx context.Context, language string) (quiz.TestVariant, error) {
	variants, err := s.ListVariants(ctx, language)
	if err != nil {
		return quiz.TestVariant{}, err
	}
	if len(variants) == 0 {
		return quiz.TestVariant{}, ErrNotFound
	}
	return s.GetTest(ctx, language, variants[rand.Intn(len(variants))])
}

func (s *SQLStore) ListLanguages(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT language FROM tests ORDER BY language`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []string{}
	for rows.Next() {
		var l string
		if err := rows.Scan(&l); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (s *SQLStore) ListVariants(ctx context.Context, language string) ([]int, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT variant FROM tests WHERE language=$1 ORDER BY variant`, language)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []int{}
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (s *SQLStore) SaveResult(ctx context.Context, r quiz.TestResult) error {
	aj, err := json.Marshal(r.Answers)
	if err != nil {
		return err
	}
	ij, err := json.Marshal(r.AllQuestionIDs)
	if err != nil {
		return err
	}
	tj, err := json.Marshal(r.QuestionTypesByID)
	if err != nil {
		return err
	}
	cj, err := json.Marshal(r.CorrectOptionsByID)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO results
		(id,user_id,language,variant,correct_answers,total_questions,ts,
		 answers_json,all_question_ids_json,question_types_json,correct_options_json)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		ON CONFLICT (id) DO NOTHING`,
		r.ID, r.UserID, r.Language, r.Variant, r.CorrectAnswers, r.TotalQuestions,
		r.Timestamp.Unix(), string(aj), string(ij), string(tj), string(cj))
	return err
}

func (s *SQLStore) GetResult(ctx context.Context, id string) (quiz.TestResult, error) {
	row := s.db.QueryRowContext(ctx, `SELECT
		id,user_id,language,variant,correct_answers,total_questions,ts,
		answers_json,all_question_ids_json,question_types_json,correct_options_json
		FROM results WHERE id=$1`, id)
	r, err := scanResult(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return quiz.TestResult{}, ErrNotFound
		}
		return quiz.TestResult{}, err
	}
	return r, nil
}

func (s *SQLStore) ListResults(ctx context.Context, userID string) ([]quiz.TestResult, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT
		id,user_id,language,variant,correct_answers,total_questions,ts,
		answers_json,all_question_ids_json,question_types_json,correct_options_json
		FROM results WHERE user_id=$1 ORDER BY ts DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []quiz.TestResult{}
	for rows.Next() {
		r, err := scanResult(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

type rowScanner interface{ Scan(dest ...any) error }

func scanResult(row rowScanner) (quiz.TestResult, error) {
	var r quiz.TestResult
	var ts int64
	var aj, ij, tj, cj string
	if err := row.Scan(&r.ID, &r.UserID, &r.Language, &r.Variant,
		&r.CorrectAnswers, &r.TotalQuestions, &ts, &aj, &ij, &tj, &cj); err != nil {
		return quiz.TestResult{}, err
	}
	r.Timestamp = time.Unix(ts, 0).UTC()
	if err := json.Unmarshal([]byte(aj), &r.Answers); err != nil {
		return quiz.TestResult{}, err
	}
	if err := json.Unmarshal([]byte(ij), &r.AllQuestionIDs); err != nil {
		return quiz.TestResult{}, err
	}
	if err := json.Unmarshal([]byte(tj), &r.QuestionTypesByID); err != nil {
		return quiz.TestResult{}, err
	}
	if err := json.Unmarshal([]byte(cj), &r.CorrectOptionsByID); err != nil {
		return quiz.TestResult{}, err
	}
	return r, nil
}

func (s *SQLStore) AddBookmark(ctx context.Context, userID string, b Bookmark) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO bookmarks
		(user_id,question_id,title,language,variant,created_at)
		VALUES ($1,$2,$3,$4,$5,$6)
		ON CONFLICT (user_id,question_id) DO UPDATE SET
		  title=EXCLUDED.title, language=EXCLUDED.language,
		  variant=EXCLUDED.variant, created_at=EXCLUDED.created_at`,
		userID, b.QuestionID, b.Title, b.Language, b.Variant, b.CreatedAt.Unix())
	return err
}

func (s *SQLStore) ListBookmarks(ctx context.Context, userID string) ([]Bookmark, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT question_id,title,language,variant,created_at
		FROM bookmarks WHERE user_id=$1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Bookmark{}
	for rows.Next() {
		var b Bookmark
		var ts int64
		if err := rows.Scan(&b.QuestionID, &b.Title, &b.Language, &b.Variant, &ts); err != nil {
			return nil, err
		}
		b.CreatedAt = time.Unix(ts, 0).UTC()
		out = append(out, b)
	}
	return out, rows.Err()
}

func (s *SQLStore) RemoveBookmark(ctx context.Context, userID, questionID string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM bookmarks WHERE user_id=$1 AND question_id=$2`, userID, questionID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}
