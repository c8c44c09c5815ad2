// Package record defines the classification record written for every
// discovered document, the size/page categories, and the path normalization
// rules shared by discovery and resume.
package record
