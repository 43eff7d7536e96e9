package models

// All lists every persisted model, in dependency order, for migrations.
var All = []interface{}{
	&Pipeline{},
	&Build{},
	&AuthToken{},
	&User{},
	&Target{},
	&Preferences{},
}
