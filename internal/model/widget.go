package model

import (
    "encoding/json"
    "time"
)

// DashboardLayout stores one user's widget arrangement as an opaque
// JSON document in the `dashboard_layouts` table. The server never
// interprets the widget entries; it only persists and returns them.
//
// Fields:
//  ID        – UUID primary key.
//  UserID    – owner (unique, one layout per user).
//  Widgets   – raw JSON array of widget placements.
//  CreatedAt – timestamp of creation.
//  UpdatedAt – timestamp of last save.
type DashboardLayout struct {
    ID        string          // dashboard_layouts.id
    UserID    string          // dashboard_layouts.user_id
    Widgets   json.RawMessage // dashboard_layouts.widgets
    CreatedAt time.Time       // dashboard_layouts.created_at
    UpdatedAt time.Time       // dashboard_layouts.updated_at
}

// Bookmark is a saved link shown by the bookmarks widget.
//
// Fields:
//  ID        – UUID primary key.
//  UserID    – owner of the bookmark.
//  Title     – display title.
//  URL       – target address.
//  Category  – optional grouping label.
//  Position  – ordering within the category.
//  CreatedAt – timestamp of creation.
type Bookmark struct {
    ID        string    // bookmarks.id
    UserID    string    // bookmarks.user_id
    Title     string    // bookmarks.title
    URL       string    // bookmarks.url
    Category  string    // bookmarks.category (nullable, empty when unset)
    Position  int       // bookmarks.position
    CreatedAt time.Time // bookmarks.created_at
}
