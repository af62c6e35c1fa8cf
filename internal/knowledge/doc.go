// Package knowledge implements the curation and retrieval engine behind the
// coaching assistant.
//
// The engine decides whether a user/AI exchange contains generalizable
// knowledge (WorthinessFilter), turns worthy exchanges into structured
// candidate records through an injected Extractor, deduplicates candidates
// against the stored catalog (DuplicateDetector), and moves admitted records
// through a pending/approved/rejected moderation lifecycle owned by the
// Store. Questions are answered by scoring approved records lexically
// (Matcher); user reactions land as helpful/not-helpful counters for
// moderators.
//
// Service ties the pieces together and is the only entry point the rest of
// the application uses.
package knowledge
