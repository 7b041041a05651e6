package storage

const schemaSQL = `
-- One row per completed crawl
CREATE TABLE IF NOT EXISTS crawl_runs (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    started_at DATETIME NOT NULL,
    duration_ms INTEGER NOT NULL,
    urls_visited INTEGER NOT NULL,
    max_depth INTEGER NOT NULL,
    parallelism INTEGER NOT NULL,
    implementation TEXT NOT NULL CHECK (implementation IN ('parallel', 'sequential')),
    seed_urls TEXT
);

CREATE INDEX IF NOT EXISTS idx_runs_started ON crawl_runs(started_at);

-- Ranked popular words of a run; rank starts at 1
CREATE TABLE IF NOT EXISTS run_words (
    run_id INTEGER NOT NULL REFERENCES crawl_runs(id) ON DELETE CASCADE,
    rank INTEGER NOT NULL,
    word TEXT NOT NULL,
    count INTEGER NOT NULL,
    PRIMARY KEY (run_id, rank)
);

CREATE INDEX IF NOT EXISTS idx_run_words_word ON run_words(word);

-- Aggregate view across all runs
CREATE VIEW IF NOT EXISTS word_totals AS
SELECT
    word,
    COUNT(*) as runs,
    SUM(count) as total_count
FROM run_words
GROUP BY word;

-- Key/value metadata
CREATE TABLE IF NOT EXISTS crawl_meta (
    key TEXT PRIMARY KEY NOT NULL,
    value TEXT NOT NULL
);
`
