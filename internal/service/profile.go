package service

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/saadjs/macroplan/internal/model"
)

type ProfileInput struct {
	Name          string
	HeightCm      *float64
	DateOfBirth   *time.Time
	Sex           string
	ActivityLevel int
	Role          string
}

func normalizeSex(s string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return "", fmt.Errorf("sex is required (use Male or Female)")
	case "male", "m":
		return "Male", nil
	case "female", "f":
		return "Female", nil
	default:
		return "", fmt.Errorf("invalid sex %q (use Male or Female)", s)
	}
}

func validateProfileInput(in ProfileInput) (ProfileInput, error) {
	sex, err := normalizeSex(in.Sex)
	if err != nil {
		return in, err
	}
	in.Sex = sex
	if in.ActivityLevel < 0 || in.ActivityLevel > 4 {
		return in, fmt.Errorf("activity level must be between 0 and 4")
	}
	if in.HeightCm != nil && *in.HeightCm <= 0 {
		return in, fmt.Errorf("height must be > 0")
	}
	if in.DateOfBirth != nil && in.DateOfBirth.After(time.Now()) {
		return in, fmt.Errorf("date of birth cannot be in the future")
	}
	in.Name = strings.TrimSpace(in.Name)
	in.Role = strings.TrimSpace(strings.ToLower(in.Role))
	if in.Role == "" {
		in.Role = "user"
	}
	return in, nil
}

// SaveProfile creates a profile when id is 0 and replaces the stored
// attributes otherwise. Diet phases are seeded for the saved profile.
func SaveProfile(db *sql.DB, id int64, in ProfileInput) (int64, error) {
	in, err := validateProfileInput(in)
	if err != nil {
		return 0, err
	}
	var dob any
	if in.DateOfBirth != nil {
		dob = formatDate(*in.DateOfBirth)
	}

	if id == 0 {
		res, err := db.Exec(`
INSERT INTO profiles(name, height_cm, date_of_birth, sex, activity_level, role)
VALUES(?, ?, ?, ?, ?, ?)
`, in.Name, in.HeightCm, dob, in.Sex, in.ActivityLevel, in.Role)
		if err != nil {
			return 0, fmt.Errorf("create profile: %w", err)
		}
		id, err = res.LastInsertId()
		if err != nil {
			return 0, fmt.Errorf("resolve profile id: %w", err)
		}
	} else {
		res, err := db.Exec(`
UPDATE profiles
SET name = ?, height_cm = ?, date_of_birth = ?, sex = ?, activity_level = ?, role = ?, updated_at = CURRENT_TIMESTAMP
WHERE id = ?
`, in.Name, in.HeightCm, dob, in.Sex, in.ActivityLevel, in.Role, id)
		if err != nil {
			return 0, fmt.Errorf("update profile %d: %w", id, err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("read rows affected: %w", err)
		}
		if affected == 0 {
			return 0, fmt.Errorf("profile %d: %w", id, ErrProfileNotFound)
		}
	}

	if err := EnsureDietPhases(db, id); err != nil {
		return 0, err
	}
	logger.Info("profile saved", zapProfile(id))
	return id, nil
}

func GetProfile(db *sql.DB, id int64) (*model.Profile, error) {
	row := db.QueryRow(`
SELECT id, name, height_cm, date_of_birth, sex, activity_level, role, created_at
FROM profiles WHERE id = ?
`, id)
	p, err := scanProfile(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("profile %d: %w", id, ErrProfileNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get profile %d: %w", id, err)
	}
	return p, nil
}

func ListProfiles(db *sql.DB) ([]model.Profile, error) {
	rows, err := db.Query(`
SELECT id, name, height_cm, date_of_birth, sex, activity_level, role, created_at
FROM profiles ORDER BY id ASC
`)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	defer rows.Close()

	out := make([]model.Profile, 0)
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("scan profile: %w", err)
		}
		out = append(out, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate profiles: %w", err)
	}
	return out, nil
}

// ResolveProfileID returns id when it names an existing profile. An id of 0
// selects the oldest profile, which is the only one in a single-user install.
func ResolveProfileID(db *sql.DB, id int64) (int64, error) {
	if id < 0 {
		return 0, fmt.Errorf("profile id must be >= 0")
	}
	var resolved int64
	var err error
	if id == 0 {
		err = db.QueryRow(`SELECT id FROM profiles ORDER BY id ASC LIMIT 1`).Scan(&resolved)
	} else {
		err = db.QueryRow(`SELECT id FROM profiles WHERE id = ?`, id).Scan(&resolved)
	}
	if err == sql.ErrNoRows {
		if id == 0 {
			return 0, fmt.Errorf("no profile configured; run 'macroplan profile set' first: %w", ErrProfileNotFound)
		}
		return 0, fmt.Errorf("profile %d: %w", id, ErrProfileNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("resolve profile: %w", err)
	}
	return resolved, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProfile(row rowScanner) (*model.Profile, error) {
	var p model.Profile
	var height sql.NullFloat64
	var dob sql.NullString
	var createdAt time.Time
	if err := row.Scan(&p.ID, &p.Name, &height, &dob, &p.Sex, &p.ActivityLevel, &p.Role, &createdAt); err != nil {
		return nil, err
	}
	p.HeightCm = nullFloat(height)
	p.CreatedAt = createdAt
	if dob.Valid && strings.TrimSpace(dob.String) != "" {
		t, err := parseDate(dob.String)
		if err != nil {
			return nil, err
		}
		p.DateOfBirth = &t
	}
	return &p, nil
}
