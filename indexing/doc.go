// Package indexing computes and refreshes the embedding vectors of the
// ICD-11 classification corpus.
//
// Entries are read from the corpus in code order, embedded in batches with
// retry and exponential backoff, unit-normalized so cosine similarity reduces
// to a dot product, and written back. Batches run concurrently on a worker pool
// and progress is reported to a writer.
package indexing
