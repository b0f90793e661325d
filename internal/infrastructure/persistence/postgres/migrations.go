// Package postgres implements the PostgreSQL persistence layer for Lingora.
package postgres

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 001: USERS AND LESSONS
// ══════════════════════════════════════════════════════════════════════════════

const migration001Up = `
-- Migration: Create users and lesson catalog tables
-- Version: 001

CREATE TABLE IF NOT EXISTS users (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    email VARCHAR(255) NOT NULL UNIQUE,
    password_hash VARCHAR(100) NOT NULL,
    display_name VARCHAR(100) NOT NULL,
    native_language VARCHAR(10) NOT NULL,
    target_language VARCHAR(10) NOT NULL,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT different_languages CHECK (native_language != target_language)
);

CREATE INDEX IF NOT EXISTS idx_users_email ON users(LOWER(email));

-- Lesson catalog. Content authoring happens out of band; this service
-- only reads lessons to issue tokens and validate completions.
CREATE TABLE IF NOT EXISTS lessons (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    unit_id UUID NOT NULL,
    title VARCHAR(255) NOT NULL,
    xp_reward INTEGER NOT NULL DEFAULT 10,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_xp_reward CHECK (xp_reward > 0)
);

CREATE INDEX IF NOT EXISTS idx_lessons_unit ON lessons(unit_id);

CREATE TABLE IF NOT EXISTS exercises (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    lesson_id UUID NOT NULL REFERENCES lessons(id) ON DELETE CASCADE,
    skill_type VARCHAR(20) NOT NULL,
    position INTEGER NOT NULL,

    UNIQUE(lesson_id, position),
    CONSTRAINT valid_skill_type CHECK (skill_type IN
        ('vocabulary', 'grammar', 'listening', 'speaking', 'reading', 'writing'))
);

CREATE INDEX IF NOT EXISTS idx_exercises_lesson ON exercises(lesson_id, position);

-- Updated_at trigger function for automatic timestamp updates
CREATE OR REPLACE FUNCTION update_updated_at_column()
RETURNS TRIGGER AS $$
BEGIN
    NEW.updated_at = NOW();
    RETURN NEW;
END;
$$ language 'plpgsql';

DROP TRIGGER IF EXISTS update_users_updated_at ON users;
CREATE TRIGGER update_users_updated_at
    BEFORE UPDATE ON users
    FOR EACH ROW
    EXECUTE FUNCTION update_updated_at_column();
`

const migration001Down = `
DROP TRIGGER IF EXISTS update_users_updated_at ON users;
DROP FUNCTION IF EXISTS update_updated_at_column();
DROP TABLE IF EXISTS exercises;
DROP TABLE IF EXISTS lessons;
DROP TABLE IF EXISTS users;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 002: SESSION TOKENS
// ══════════════════════════════════════════════════════════════════════════════

const migration002Up = `
-- Migration: Create session tokens table
-- Version: 002
-- The consumed flag is flipped by a conditional UPDATE; the row-level
-- lock taken by that UPDATE is what makes consumption single-use under
-- concurrent submissions.

CREATE TABLE IF NOT EXISTS session_tokens (
    token CHAR(64) PRIMARY KEY,
    user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    lesson_id UUID NOT NULL REFERENCES lessons(id) ON DELETE CASCADE,
    exercise_count INTEGER NOT NULL,
    issued_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    consumed BOOLEAN NOT NULL DEFAULT FALSE,

    CONSTRAINT valid_exercise_count CHECK (exercise_count >= 0)
);

-- The garbage collection sweep scans by issue time.
CREATE INDEX IF NOT EXISTS idx_session_tokens_issued_at ON session_tokens(issued_at);
CREATE INDEX IF NOT EXISTS idx_session_tokens_user ON session_tokens(user_id);
`

const migration002Down = `
DROP TABLE IF EXISTS session_tokens;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 003: PROGRESS
// ══════════════════════════════════════════════════════════════════════════════

const migration003Up = `
-- Migration: Create progress tables
-- Version: 003

CREATE TABLE IF NOT EXISTS lesson_progress (
    user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    lesson_id UUID NOT NULL REFERENCES lessons(id) ON DELETE CASCADE,
    status VARCHAR(20) NOT NULL DEFAULT 'not_started',
    score INTEGER NOT NULL DEFAULT 0,
    completed_at TIMESTAMP WITH TIME ZONE,
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    PRIMARY KEY (user_id, lesson_id),
    CONSTRAINT valid_status CHECK (status IN ('not_started', 'in_progress', 'completed')),
    CONSTRAINT valid_score CHECK (score >= 0 AND score <= 100)
);

CREATE INDEX IF NOT EXISTS idx_lesson_progress_user ON lesson_progress(user_id);

CREATE TABLE IF NOT EXISTS completed_exercises (
    user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    exercise_id UUID NOT NULL REFERENCES exercises(id) ON DELETE CASCADE,
    lesson_id UUID NOT NULL REFERENCES lessons(id) ON DELETE CASCADE,
    skill_type VARCHAR(20) NOT NULL,
    strength DOUBLE PRECISION NOT NULL DEFAULT 1.0,
    completed_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    review_count INTEGER NOT NULL DEFAULT 1,

    PRIMARY KEY (user_id, exercise_id),
    CONSTRAINT valid_strength CHECK (strength >= 0 AND strength <= 1)
);

CREATE INDEX IF NOT EXISTS idx_completed_exercises_lesson ON completed_exercises(user_id, lesson_id);
CREATE INDEX IF NOT EXISTS idx_completed_exercises_strength ON completed_exercises(user_id, strength);

CREATE TABLE IF NOT EXISTS daily_progress (
    user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    date DATE NOT NULL,
    xp_accrued INTEGER NOT NULL DEFAULT 0,
    lessons_completed INTEGER NOT NULL DEFAULT 0,

    PRIMARY KEY (user_id, date),
    CONSTRAINT valid_xp CHECK (xp_accrued >= 0)
);

CREATE INDEX IF NOT EXISTS idx_daily_progress_user_date ON daily_progress(user_id, date DESC);
`

const migration003Down = `
DROP TABLE IF EXISTS daily_progress;
DROP TABLE IF EXISTS completed_exercises;
DROP TABLE IF EXISTS lesson_progress;
`
