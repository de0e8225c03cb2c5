package canon

// DefaultAliases returns the built-in raw → canonical aliases used while
// matching names from LogComex and the budget.
func DefaultAliases() map[string]string {
	return map[string]string{
		"aliança":                          "alianca",
		"alianca froneri x jpa":            "froneri",
		"blue water - froneri - jpa":       "froneri",
		"alianca - elgin":                  "elgin",
		"alianca - diversos":               "ambev",
		"brr reciclagem e coleta ltda":     "brr reciclagem",
		"cobremax rio":                     "cobremax",
		"katrium industrias quimicas s.a":  "katrium",
		"iff essencias e fragrancias ltda": "iff",
		"dc logistics brasil":              "dc logistics",
		"ibr-lam laminacao de metais ltda": "ibr lam",
		"alianca valgroup xerem":           "valgroup",
		"alianca samsung x via varejo":     "samsung",
		"alianca - cosan":                  "cosan",
		"alianca - ball":                   "ball",
		"alianca - braskem":                "braskem",
		"alianca - anfrapi":                "anfrapi",
	}
}

// DefaultCommercialGroups returns the groupings applied to the final report:
// several canonical clients reported under one commercial name.
func DefaultCommercialGroups() map[string]string {
	return map[string]string{
		"rio janeiro refrescos":          "coca cola andina",
		"pif paf":                        "rio branco alimentos",
		"iff":                            "iff essencias fragrancias",
		"iff taubate":                    "iff essencias fragrancias",
		"iff guadalupe":                  "iff essencias fragrancias",
		"katrium honorio":                "katrium industrias quimicas",
		"katrium santa cruz":             "katrium industrias quimicas",
		"katrium":                        "katrium industrias quimicas",
		"maersk":                         "alianca naval empresa navegacao",
		"blue water logistics":           "blue water",
		"blue water shipping brasil":     "blue water",
		"art bag rio":                    "art bag",
		"seb brasil produtos domesticos": "seb brasil prods dom",

		"nov wellbore technologies brasil equipamentos servicos": "nov flexibles equipamentos servicos",
	}
}
