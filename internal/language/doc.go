// Package language normalizes spoken-language codes accepted by the
// conversion backend.
//
// The backend transcribes English and Vietnamese speech only. Callers pass
// whatever the user typed (ISO 639-1/639-2 codes, BCP 47 tags such as
// "vi-VN", or English words) through Normalize before a job is submitted so
// malformed values never reach the network.
package language
