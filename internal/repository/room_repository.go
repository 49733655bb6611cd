package repository

import (
	"context"

	"github.com/stemsi/quizroom/internal/database"
	"github.com/stemsi/quizroom/internal/model"
)

// RoomRepository handles rooms and their membership.
type RoomRepository struct {
	db database.Querier
}

// NewRoomRepository creates a new RoomRepository.
func NewRoomRepository(db database.Querier) *RoomRepository {
	return &RoomRepository{db: db}
}

// WithTx returns a repository bound to tx.
func (r *RoomRepository) WithTx(tx *database.Tx) *RoomRepository {
	return &RoomRepository{db: tx}
}

// Create inserts a room and fills in its ID.
func (r *RoomRepository) Create(ctx context.Context, room *model.Room) error {
	return r.db.QueryRow(ctx,
		`INSERT INTO rooms (code, name, description, duration_sec, total_questions,
		                    easy_count, medium_count, hard_count, status, creator_id, room_pass, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 RETURNING id`,
		room.Code, room.Name, room.Description, room.DurationSec, room.TotalQuestions,
		room.EasyCount, room.MediumCount, room.HardCount, room.Status, room.CreatorID, room.RoomPass, room.CreatedAt,
	).Scan(&room.ID)
}

// GetByID retrieves a room by ID.
func (r *RoomRepository) GetByID(ctx context.Context, id int64) (*model.Room, error) {
	room := &model.Room{}
	err := r.db.QueryRow(ctx,
		`SELECT id, code, name, description, duration_sec, total_questions,
		        easy_count, medium_count, hard_count, status, creator_id, room_pass, started_at, created_at
		 FROM rooms WHERE id = ?`, id,
	).Scan(&room.ID, &room.Code, &room.Name, &room.Description, &room.DurationSec, &room.TotalQuestions,
		&room.EasyCount, &room.MediumCount, &room.HardCount, &room.Status, &room.CreatorID, &room.RoomPass,
		&room.StartedAt, &room.CreatedAt)
	if err != nil {
		return nil, err
	}
	return room, nil
}

// List returns rooms newest first, optionally filtered by status.
func (r *RoomRepository) List(ctx context.Context, status *model.RoomStatus) ([]model.RoomSummary, error) {
	query := `
		SELECT r.id, r.code, r.name, r.status, r.duration_sec, r.creator_id,
		       COALESCE(u.username, ''),
		       (SELECT COUNT(*) FROM room_participants p WHERE p.room_id = r.id),
		       r.started_at
		FROM rooms r
		LEFT JOIN users u ON u.id = r.creator_id`
	var args []any
	if status != nil {
		query += ` WHERE r.status = ?`
		args = append(args, *status)
	}
	query += ` ORDER BY r.created_at DESC, r.id DESC`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	rooms := []model.RoomSummary{}
	for rows.Next() {
		var s model.RoomSummary
		if err := rows.Scan(&s.ID, &s.Code, &s.Name, &s.Status, &s.DurationSec, &s.CreatorID,
			&s.CreatorName, &s.ParticipantCount, &s.StartedAt); err != nil {
			return nil, err
		}
		rooms = append(rooms, s)
	}
	return rooms, rows.Err()
}

// Details returns a room with its creator name and participant count.
// Participants are loaded separately.
func (r *RoomRepository) Details(ctx context.Context, id int64) (*model.RoomDetails, error) {
	d := &model.RoomDetails{}
	err := r.db.QueryRow(ctx,
		`SELECT r.id, r.code, r.name, r.description, r.duration_sec, r.status, r.creator_id,
		        COALESCE(u.username, ''),
		        (SELECT COUNT(*) FROM room_participants p WHERE p.room_id = r.id)
		 FROM rooms r
		 LEFT JOIN users u ON u.id = r.creator_id
		 WHERE r.id = ?`, id,
	).Scan(&d.ID, &d.Code, &d.Name, &d.Description, &d.DurationSec, &d.Status, &d.CreatorID,
		&d.CreatorName, &d.ParticipantCount)
	if err != nil {
		return nil, err
	}
	return d, nil
}

// Participants lists room members in join order.
func (r *RoomRepository) Participants(ctx context.Context, roomID int64) ([]model.Participant, error) {
	rows, err := r.db.Query(ctx,
		`SELECT p.user_id, COALESCE(u.username, ''), COALESCE(u.full_name, ''), p.status, p.joined_at
		 FROM room_participants p
		 LEFT JOIN users u ON u.id = p.user_id
		 WHERE p.room_id = ?
		 ORDER BY p.joined_at ASC, p.user_id ASC`, roomID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	participants := []model.Participant{}
	for rows.Next() {
		var p model.Participant
		if err := rows.Scan(&p.UserID, &p.Username, &p.FullName, &p.Status, &p.JoinedAt); err != nil {
			return nil, err
		}
		participants = append(participants, p)
	}
	return participants, rows.Err()
}

// AddParticipant records membership. Joining twice is a no-op.
func (r *RoomRepository) AddParticipant(ctx context.Context, roomID, userID, joinedAt int64) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO room_participants (room_id, user_id, status, joined_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT (room_id, user_id) DO NOTHING`,
		roomID, userID, model.ParticipantStatusReady, joinedAt)
	return err
}

// IsParticipant reports whether userID has joined roomID.
func (r *RoomRepository) IsParticipant(ctx context.Context, roomID, userID int64) (bool, error) {
	var n int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM room_participants WHERE room_id = ? AND user_id = ?`,
		roomID, userID,
	).Scan(&n)
	return n > 0, err
}

// Start moves a waiting room owned by creatorID to IN_PROGRESS. It reports
// false when no row matched.
func (r *RoomRepository) Start(ctx context.Context, roomID, creatorID, now int64) (bool, error) {
	res, err := r.db.Exec(ctx,
		`UPDATE rooms SET status = ?, started_at = ?
		 WHERE id = ? AND creator_id = ? AND status = ?`,
		model.RoomStatusInProgress, now, roomID, creatorID, model.RoomStatusWaiting)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// Finish moves an in-progress room to FINISHED. It reports false when no
// row matched.
func (r *RoomRepository) Finish(ctx context.Context, roomID int64) (bool, error) {
	res, err := r.db.Exec(ctx,
		`UPDATE rooms SET status = ? WHERE id = ? AND status = ?`,
		model.RoomStatusFinished, roomID, model.RoomStatusInProgress)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// Delete removes a room with its members, exams, assignments and answers.
// Run it inside a transaction.
func (r *RoomRepository) Delete(ctx context.Context, roomID int64) error {
	stmts := []string{
		`DELETE FROM answers WHERE exam_id IN (SELECT id FROM exams WHERE room_id = ?)`,
		`DELETE FROM exam_questions WHERE exam_id IN (SELECT id FROM exams WHERE room_id = ?)`,
		`DELETE FROM exams WHERE room_id = ?`,
		`DELETE FROM room_participants WHERE room_id = ?`,
		`DELETE FROM rooms WHERE id = ?`,
	}
	for _, stmt := range stmts {
		if _, err := r.db.Exec(ctx, stmt, roomID); err != nil {
			return err
		}
	}
	return nil
}
