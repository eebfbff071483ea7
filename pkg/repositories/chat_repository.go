package repositories

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/ToanTrinh2004/AIDSENSE-BE/pkg/database"
	"github.com/ToanTrinh2004/AIDSENSE-BE/pkg/models"
)

// ChatRepository defines data access for the chatbot's document store.
type ChatRepository interface {
	InsertDocument(ctx context.Context, content string, embedding []float32) (*models.ChatDocument, error)
	// MatchDocuments calls the match_docs function to retrieve the k nearest
	// documents to the query embedding.
	MatchDocuments(ctx context.Context, embedding []float32, k int) ([]*models.ChatDocument, error)
}

type chatRepository struct {
	db *database.DB
}

// NewChatRepository creates a new chat document repository.
func NewChatRepository(db *database.DB) ChatRepository {
	return &chatRepository{db: db}
}

// vectorLiteral renders an embedding as a pgvector text literal.
func vectorLiteral(embedding []float32) string {
	parts := make([]string, len(embedding))
	for i, v := range embedding {
		parts[i] = strconv.FormatFloat(float64(v), 'f', -1, 32)
	}
	return "[" + strings.Join(parts, ",") + "]"
}

func (r *chatRepository) InsertDocument(ctx context.Context, content string, embedding []float32) (*models.ChatDocument, error) {
	query := `INSERT INTO docs (content, vector) VALUES ($1, $2::vector) RETURNING id, created_at`

	doc := &models.ChatDocument{Content: content}
	err := r.db.QueryRow(ctx, query, content, vectorLiteral(embedding)).Scan(&doc.ID, &doc.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert document: %w", err)
	}
	return doc, nil
}

func (r *chatRepository) MatchDocuments(ctx context.Context, embedding []float32, k int) ([]*models.ChatDocument, error) {
	query := `SELECT id, content, created_at FROM match_docs($1::vector, $2)`

	rows, err := r.db.Query(ctx, query, vectorLiteral(embedding), k)
	if err != nil {
		return nil, fmt.Errorf("failed to match documents: %w", err)
	}
	defer rows.Close()

	var docs []*models.ChatDocument
	for rows.Next() {
		var doc models.ChatDocument
		if err := rows.Scan(&doc.ID, &doc.Content, &doc.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		docs = append(docs, &doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating documents: %w", err)
	}
	return docs, nil
}

// Ensure chatRepository implements ChatRepository at compile time.
var _ ChatRepository = (*chatRepository)(nil)
