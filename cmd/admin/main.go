package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/lussekatt/internal/app"
	"github.com/shrimpsizemoose/lussekatt/internal/models"
)

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: admin [flags] <command>

Commands:
  add-student    -email <email> [-first <name>] [-last <name>]
  add-lesson     -lesson <name> [-due "2006-01-02 15:04:05 MST"]
  remove-student -email <email>
  list-students
`)
	flag.PrintDefaults()
}

func main() {
	var (
		configPath = flag.String("config", "config.toml", "Path to config file")
		email      = flag.String("email", "", "Student email")
		firstName  = flag.String("first", "", "Student first name")
		lastName   = flag.String("last", "", "Student last name")
		lessonName = flag.String("lesson", "", "Lesson name")
		dueDate    = flag.String("due", "", "Lesson due date")
	)
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() != 1 {
		usage()
		os.Exit(2)
	}

	if err := godotenv.Load(); err != nil {
		logger.Debug.Printf("No .env file loaded: %v", err)
	}

	service, err := app.NewService(*configPath)
	if err != nil {
		logger.Error.Fatalf("Failed to start admin: %v", err)
	}
	defer service.Close()

	switch flag.Arg(0) {
	case "add-student":
		addStudent(service, *email, *firstName, *lastName)
	case "add-lesson":
		addLesson(service, *lessonName, *dueDate)
	case "remove-student":
		removeStudent(service, *email)
	case "list-students":
		listStudents(service)
	default:
		usage()
		os.Exit(2)
	}
}

func addStudent(service *app.Service, email, firstName, lastName string) {
	existing, err := service.Store.GetStudentByEmail(email)
	if err != nil {
		logger.Error.Fatalf("Failed to check existing students: %v", err)
	}
	if existing != nil {
		logger.Error.Fatalf("User with email %q already exists.", models.NormalizeEmail(email))
	}

	student := &models.Student{
		ID:        models.NewStudentID(firstName, lastName),
		Email:     models.NormalizeEmail(email),
		FirstName: firstName,
		LastName:  lastName,
	}
	if err := service.Store.CreateStudent(student); err != nil {
		logger.Error.Fatalf("Failed to add student: %v", err)
	}
	logger.Info.Printf("User %q was added.", student.ID)
}

func addLesson(service *app.Service, name, due string) {
	lesson := &models.Lesson{Name: name}
	if due != "" {
		parsed, err := time.Parse(models.TimestampLayout, due)
		if err != nil {
			logger.Error.Fatalf("Invalid due date %q: %v", due, err)
		}
		unix := parsed.Unix()
		lesson.DueDate = &unix
	}

	if err := service.RegisterLesson(lesson); err != nil {
		logger.Error.Fatalf("Failed to add lesson: %v", err)
	}
	logger.Info.Printf("The lesson %q was added.", lesson.Name)
}

func removeStudent(service *app.Service, email string) {
	student, err := service.Store.GetStudentByEmail(email)
	if err != nil {
		logger.Error.Fatalf("Failed to look up student: %v", err)
	}
	if student == nil {
		logger.Error.Fatalf("No student with email %q.", email)
	}

	if err := service.Store.DeleteStudent(student.ID); err != nil {
		logger.Error.Fatalf("Failed to remove student: %v", err)
	}

	// Promoted files and generated feedback go too
	for _, dir := range []string{
		filepath.Join(service.Config.Course.Root, "submitted", student.ID),
		filepath.Join(service.Config.Course.Root, "feedback", student.ID),
	} {
		if err := os.RemoveAll(dir); err != nil {
			logger.Error.Fatalf("Failed to remove %s: %v", dir, err)
		}
	}
	logger.Info.Printf("User %q was removed.", student.ID)
}

func listStudents(service *app.Service) {
	students, err := service.Store.ListStudents()
	if err != nil {
		logger.Error.Fatalf("Failed to list students: %v", err)
	}
	for _, s := range students {
		fmt.Printf("%s\t%s\t%s %s\n", s.ID, s.Email, s.FirstName, s.LastName)
	}
}
