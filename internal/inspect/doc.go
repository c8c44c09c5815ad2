// Package inspect opens documents and reports their page count and
// encryption state.
//
// Inspection is the only step that parses untrusted bytes, so it is assumed
// to crash, hang, or exhaust memory on hostile input. ProcessInspector runs
// each inspection in a short-lived child process with a deadline; the child
// side lives in RunChild. PDFInspector is the in-process implementation both
// modes ultimately use.
package inspect
