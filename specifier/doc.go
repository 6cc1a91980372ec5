// Package specifier implements package specifiers: the "name" or
// "name:arch" strings accepted on dpkg's command line and in a few
// control-file contexts, together with their glob-pattern form
// ("name*", "name:*"). It is grounded on pkg-spec.c.
package specifier
