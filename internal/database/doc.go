// Package database provides the SQLite store shared by the crawler, the
// inspection commands and the external named-entity recognizer.
//
// The schema has three tables:
//
//	article  (id, title UNIQUE)
//	sentence (id, sent, article_id -> article.id, position)
//	ner      (id, entity, entity_type, sentence_id -> sentence.id)
//
// Foreign keys are enforced on every connection. The crawler writes
// article and sentence through InsertArticle; ner rows are written by the
// recognizer through InsertNamedEntity.
package database
