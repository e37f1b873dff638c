// Package chunker wraps the external chunking binary that splits converted
// documents into token-bounded retrieval chunks.
package chunker
