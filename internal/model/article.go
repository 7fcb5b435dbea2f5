package model

// Article is one crawled news piece.
// Titles are unique across the store; ID is the SQLite rowid assigned at
// insertion and is the foreign key target of Sentence.ArticleID.
type Article struct {
	// ID is the article's rowid.
	ID int64 `json:"id" db:"id"`

	// Title is the text of the article heading.
	Title string `json:"title" db:"title"`
}

// Sentence is one paragraph of an article body.
// Despite the name it holds a whole paragraph, not a grammatical sentence;
// the name matches the table the NER collaborator reads.
type Sentence struct {
	// ID is the sentence's rowid, referenced by NamedEntity.SentenceID.
	ID int64 `json:"id" db:"id"`

	// Text is the paragraph text.
	Text string `json:"text" db:"sent"`

	// ArticleID references Article.ID.
	ArticleID int64 `json:"article_id" db:"article_id"`

	// Position is the 0-based paragraph ordinal within the article.
	Position int `json:"position" db:"position"`
}

// NamedEntity is an entity extracted from a sentence by the external NER step.
type NamedEntity struct {
	ID int64 `json:"id" db:"id"`

	// Entity is the entity text, e.g. "Justin Trudeau".
	Entity string `json:"entity" db:"entity"`

	// EntityType is the NER label, e.g. "PERSON" or "GPE".
	EntityType string `json:"entity_type" db:"entity_type"`

	// SentenceID references Sentence.ID.
	SentenceID int64 `json:"sentence_id" db:"sentence_id"`
}

// SentenceEntityRow is one row of the article → sentence → ner join used
// for manual verification of NER output.
type SentenceEntityRow struct {
	Entity       string `json:"entity" db:"entity"`
	EntityType   string `json:"entity_type" db:"entity_type"`
	SentenceID   int64  `json:"sentence_id" db:"sentence_id"`
	SentenceText string `json:"sentence" db:"sent"`
	Title        string `json:"title" db:"title"`
}
