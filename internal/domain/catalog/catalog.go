// Package catalog 定义进程级只读查找表：融合主题、科目、教材、教研组、学年、年级与示例数据
package catalog

import "slices"

// IntegrationTopic 融合教育主题
type IntegrationTopic struct {
	Key         string `json:"key"`
	Label       string `json:"label"`
	Description string `json:"description"`
}

// 主题键
const (
	TopicNLS     = "NLS"
	TopicAI      = "AI"
	TopicThuocLa = "THUOC_LA"
	TopicTTHCM   = "TT_HCM"
	TopicQuyenCN = "QUYEN_CN"
	TopicBDKH    = "BDKH"
	TopicQPAN    = "QPAN"
	TopicKNS     = "KNS"
)

// integrationTopics 顺序即展示顺序，也是提示词中主题列表的顺序
var integrationTopics = []IntegrationTopic{
	{TopicNLS, "Năng lực số", "TT 02/2025. Tích hợp thiết bị, phần mềm và an toàn số."},
	{TopicAI, "Trí tuệ nhân tạo (AI)", "CV 8334. NLa: Vai trò con người, NLb: Đạo đức, NLc: Tạo sản phẩm số, NLd: Giải quyết vấn đề."},
	{TopicThuocLa, "Phòng chống thuốc lá", "Giáo dục tác hại Nicotine và kỹ năng từ chối thuốc lá mới."},
	{TopicTTHCM, "Tư tưởng Hồ Chí Minh", "Lồng ghép đạo đức, phong cách và tinh thần tự học của Bác."},
	{TopicQuyenCN, "Quyền con người", "Quyền trẻ em, bình đẳng và giá trị nhân văn cơ bản."},
	{TopicBDKH, "Biến đổi khí hậu", "Bảo vệ môi trường, ứng phó thiên tai và lối sống bền vững."},
	{TopicQPAN, "Quốc phòng – An ninh", "TT 08/2024. Giáo dục lòng yêu nước và ý thức chủ quyền."},
	{TopicKNS, "Kỹ năng sống", "Rèn luyện giao tiếp, tư duy và kỹ năng bảo vệ bản thân."},
}

// subjects GDPT 2018 科目
var subjects = []string{
	"Toán", "Ngữ văn", "Tiếng Anh", "Vật lí", "Hóa học", "Sinh học",
	"Lịch sử và Địa lí", "Giáo dục kinh tế và pháp luật", "Công nghệ",
	"Tin học", "Giáo dục thể chất", "Âm nhạc", "Mĩ thuật",
	"Hoạt động trải nghiệm, hướng nghiệp", "Nội dung giáo dục địa phương",
	"Khoa học tự nhiên", "Lịch sử", "Địa lí", "Giáo dục công dân",
}

var textbookSeries = []string{
	"Cánh Diều",
	"Kết nối tri thức với cuộc sống",
	"Chân trời sáng tạo",
	"Khác",
}

var departments = []string{
	"Khoa học tự nhiên (KHTN)",
	"Khoa học xã hội (KHXH)",
	"Hoạt động giáo dục (HĐGD)",
	"Toán - Lý - Hóa - Sinh",
	"Văn - Sử - Địa",
}

var academicYears = []string{
	"2024 - 2025",
	"2025 - 2026",
	"2026 - 2027",
}

var gradeLevels = []string{
	"Khối 6 (Mức TC1)",
	"Khối 7 (Mức TC1)",
	"Khối 8 (Mức TC2)",
	"Khối 9 (Mức TC2)",
}

// DemoData 示例课程列表，用于快速体验
const DemoData = `HỌC KỲ I - LỚP 8
Môn: Khoa học tự nhiên
Bài: Cấu tạo và chức năng của máu (2 tiết)
Bài: Tim và hệ mạch (2 tiết)
Bài: Vệ sinh hệ tuần hoàn và phòng chống bệnh (2 tiết)
Bài: Thực trạng ô nhiễm nguồn nước tại địa phương (3 tiết)`

// 以下访问器返回副本，调用方修改不会影响全局表

func IntegrationTopics() []IntegrationTopic { return slices.Clone(integrationTopics) }
func Subjects() []string                   { return slices.Clone(subjects) }
func TextbookSeries() []string             { return slices.Clone(textbookSeries) }
func Departments() []string                { return slices.Clone(departments) }
func AcademicYears() []string              { return slices.Clone(academicYears) }
func GradeLevels() []string                { return slices.Clone(gradeLevels) }

// Topic 按键查找主题
func Topic(key string) (IntegrationTopic, bool) {
	for _, t := range integrationTopics {
		if t.Key == key {
			return t, true
		}
	}
	return IntegrationTopic{}, false
}

// IsKnownTopic 判断主题键是否存在
func IsKnownTopic(key string) bool {
	_, ok := Topic(key)
	return ok
}

// IsKnownGrade 判断年级是否在年级表中
func IsKnownGrade(grade string) bool {
	return slices.Contains(gradeLevels, grade)
}

// Labels 将主题键解析为标签
// 结果按目录顺序排列，与 keys 的顺序无关；未知键被忽略
func Labels(keys []string) []string {
	labels := make([]string, 0, len(keys))
	for _, t := range integrationTopics {
		if slices.Contains(keys, t.Key) {
			labels = append(labels, t.Label)
		}
	}
	return labels
}

// Snapshot 全部查找表，供接口一次性下发
type Snapshot struct {
	IntegrationTopics []IntegrationTopic `json:"integration_topics"`
	Subjects          []string           `json:"subjects"`
	TextbookSeries    []string           `json:"textbook_series"`
	Departments       []string           `json:"departments"`
	AcademicYears     []string           `json:"academic_years"`
	GradeLevels       []string           `json:"grade_levels"`
	DemoData          string             `json:"demo_data"`
}

// All 返回全部查找表的快照
func All() Snapshot {
	return Snapshot{
		IntegrationTopics: IntegrationTopics(),
		Subjects:          Subjects(),
		TextbookSeries:    TextbookSeries(),
		Departments:       Departments(),
		AcademicYears:     AcademicYears(),
		GradeLevels:       GradeLevels(),
		DemoData:          DemoData,
	}
}
