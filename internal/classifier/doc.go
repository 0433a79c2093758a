// Package classifier loads and evaluates the frozen statistical model that
// produces the base phishing probability for a scan.
//
// # Purpose
//
// The vectorizer and classifier are trained offline and shipped as a single
// JSON artifact. This package loads the artifact once at process start and
// exposes a read-only Model whose Predict method maps raw email text to a
// probability in [0,1].
//
// # Train/serve consistency
//
// Feature extraction must normalize text exactly the way the artifact was
// fit. The artifact therefore declares its normalization variant, and the
// Model applies that variant before vectorizing. There are two variants:
//
//   - lowercase: coerce to string and lowercase (the runtime default)
//   - full: lowercase, strip punctuation and digits, collapse whitespace
//     (the historical training-time cleaner)
//
// # Concurrency
//
// A loaded Model is immutable and safe for concurrent use by any number of
// simultaneous scans.
package classifier
