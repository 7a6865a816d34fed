package model

import "time"

// Note is a sticky note placed on the dashboard grid. X/Y/W/H are
// grid units, ZIndex controls stacking; new notes are created on
// top and bring-to-front bumps ZIndex past the current maximum.
//
// Fields:
//  ID        – UUID primary key.
//  UserID    – owner of the note.
//  Title     – note title (may be empty).
//  Content   – note body (may be empty).
//  Color     – hex background color.
//  X, Y      – grid position.
//  W, H      – grid size.
//  ZIndex    – stacking order, higher is in front.
//  CreatedAt – timestamp of creation.
//  UpdatedAt – timestamp of last update.
type Note struct {
    ID        string    // notes.id
    UserID    string    // notes.user_id
    Title     string    // notes.title
    Content   string    // notes.content
    Color     string    // notes.color
    X         int       // notes.x
    Y         int       // notes.y
    W         int       // notes.w
    H         int       // notes.h
    ZIndex    int       // notes.z_index
    CreatedAt time.Time // notes.created_at
    UpdatedAt time.Time // notes.updated_at
}
