package model

// Group 学生小组表，对应 groups
type Group struct {
	GroupID string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"group_id"`
	Name    string `gorm:"type:varchar(100);not null;uniqueIndex"         json:"name"`
	Course  int    `gorm:"type:smallint;not null;default:1"               json:"course"`
	BaseModel

	// 关联
	Students []Student `gorm:"foreignKey:GroupID" json:"students,omitempty"`
}

// TableName 指定表名
func (Group) TableName() string { return "groups" }

// Student 学生表，对应 students
type Student struct {
	StudentID string  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"student_id"`
	FullName  string  `gorm:"type:varchar(150);not null"                     json:"full_name"`
	GroupID   *string `gorm:"type:uuid;index"                                json:"group_id,omitempty"`
	BaseModel

	// 关联
	Group *Group `gorm:"foreignKey:GroupID;references:GroupID" json:"group,omitempty"`
}

// TableName 指定表名
func (Student) TableName() string { return "students" }

// Teacher 教师表，对应 teachers
type Teacher struct {
	TeacherID string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"teacher_id"`
	Name      string `gorm:"type:varchar(100);not null"                     json:"name"`
	Email     string `gorm:"type:varchar(255)"                              json:"email,omitempty"`
	BaseModel
}

// TableName 指定表名
func (Teacher) TableName() string { return "teachers" }

// Subject 课程表，对应 subjects
type Subject struct {
	SubjectID string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"subject_id"`
	Name      string `gorm:"type:varchar(150);not null"                     json:"name"`
	BaseModel
}

// TableName 指定表名
func (Subject) TableName() string { return "subjects" }
