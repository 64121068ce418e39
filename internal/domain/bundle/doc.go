// Package bundle encodes and decodes persisted session snapshots.
//
// A Bundle is the unit of persistence for the continuity engine: the same
// JSON document is written to the durable store by autosave, offered as a
// download by export, and accepted back by import.
//
// Wire Format:
//
//	{
//	  "timestamp": 1718000000000,        // epoch milliseconds, required
//	  "version": "1.0",
//	  "backendSessionId": "…",           // optional
//	  "data": {                          // required
//	    "messages": [...], "reasoning": [...], "tableData": [...],
//	    "selectedMessages": [...], "responses": [...], "leftPanelWidth": 50
//	  }
//	}
//
// Decode rejects a document without data or timestamp as a whole; nothing
// from a corrupt bundle is ever used. The version field is carried through
// unchanged and never compared.
//
// Older exports stored messages as plain strings ("You: " prefix for user
// turns) and reasoning as plain strings; both forms still decode.
package bundle
