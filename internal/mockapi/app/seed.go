package app

import "github.com/0tycat/Joelle-E-Portfolio/internal/mockapi/store"

var sampleRecords = map[string][]store.Record{
	"skills": {
		{"name": "Go", "category": "Languages", "proficiency": 4},
		{"name": "PostgreSQL", "category": "Databases", "proficiency": 3},
	},
	"education": {
		{"institution": "Singapore Management University", "degree": "BSc Information Systems", "start_date": "2022-08-01"},
	},
	"work": {
		{"company": "Acme Pte Ltd", "role": "Software Engineering Intern", "start_date": "2024-05-01", "end_date": "2024-08-01"},
	},
	"projects": {
		{"title": "E-Portfolio", "description": "Personal portfolio site and API"},
	},
	"community": {
		{"organisation": "Code in the Community", "role": "Volunteer tutor"},
	},
	"e_portfolio": {
		{"title": "Reflection on teamwork", "category": "Reflection"},
	},
}
