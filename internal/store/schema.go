package store

const schema = `
CREATE TABLE IF NOT EXISTS npm_package (
    package_name TEXT PRIMARY KEY,
    creation_date TIMESTAMP NOT NULL,
    last_publish_date TIMESTAMP NOT NULL,
    is_active BOOLEAN NOT NULL DEFAULT 1,
    updated_at TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS category (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT NOT NULL UNIQUE,
    updated_at TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS package_category (
    package_id TEXT NOT NULL,
    category_id INTEGER NOT NULL,
    PRIMARY KEY (package_id, category_id),
    FOREIGN KEY (package_id) REFERENCES npm_package(package_name) ON DELETE CASCADE,
    FOREIGN KEY (category_id) REFERENCES category(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_npm_package_active ON npm_package(is_active);
CREATE INDEX IF NOT EXISTS idx_package_category_pkg ON package_category(package_id);
CREATE INDEX IF NOT EXISTS idx_package_category_cat ON package_category(category_id);
`
