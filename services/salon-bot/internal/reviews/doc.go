// Package reviews records client feedback on visits and lets the
// administrator hide abusive reviews.
package reviews
