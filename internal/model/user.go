package model

import "time"

// User represents an application user record as stored in the
// `users` table. Each field corresponds to a column. The json
// tags are omitted here because these structs are used by the
// repository and service layers; handlers define separate
// response types with appropriate JSON tags.
//
// The very first registered user is the bootstrap administrator
// and starts with IsActive and IsAdmin set. Every later user
// starts with both cleared and must be activated by an admin.
//
// Fields:
//  ID           – UUID primary key of the user.
//  Email        – unique, lower-cased email address.
//  FirstName    – given name.
//  LastName     – family name.
//  PasswordHash – bcrypt hashed password.
//  IsActive     – whether the account may log in.
//  IsAdmin      – whether the account may hit admin endpoints.
//  Notes        – free-text notes (may be empty).
//  Location     – free-text location used by dashboard widgets.
//  HabitXP      – accumulated habit tracker experience points.
//  CreatedAt    – timestamp of creation.
//  UpdatedAt    – timestamp of last update.
type User struct {
    ID           string    // users.id
    Email        string    // users.email
    FirstName    string    // users.first_name
    LastName     string    // users.last_name
    PasswordHash string    // users.password_hash
    IsActive     bool      // users.is_active
    IsAdmin      bool      // users.is_admin
    Notes        string    // users.notes (nullable, empty when unset)
    Location     string    // users.location (nullable, empty when unset)
    HabitXP      int       // users.habit_xp
    CreatedAt    time.Time // users.created_at
    UpdatedAt    time.Time // users.updated_at
}
