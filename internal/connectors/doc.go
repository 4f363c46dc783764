// Package connectors holds sources that feed local content into
// ingestion. The filesystem connector watches a directory for documents.
package connectors
