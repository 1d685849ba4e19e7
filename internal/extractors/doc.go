// Package extractors provides implementations of the Extractor interface
// for the document formats accepted by the knowledge base. Each extractor
// knows how to turn one kind of uploaded file into plain text.
//
// Extractors are registered with the Registry at startup.
package extractors
