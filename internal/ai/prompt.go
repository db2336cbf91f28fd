package ai

import (
	"fmt"
	"strings"

	"github.com/qwfeng/ai-trip-planner-backend/internal/domain"
)

// The model is told the exact JSON shape and forbidden from wrapping it in
// prose or code fences. No few-shot examples, no retry: prompt adherence is
// entirely the model's responsibility.

const planPromptTemplate = `
你是一个顶级的旅行规划AI助手。你的核心任务是从用户提供的自然语言描述中，智能地提取出所有关键的旅行要素（例如：目的地、旅行天数、预算、同行人员、兴趣偏好等），然后基于这些要素生成一份详细、合理且个性化的旅行计划。

严格按照以下JSON格式返回，不要在JSON代码块之外添加任何额外说明、注释或 ` + "```json" + ` 标记。
JSON结构为: {"daily_plan": [{"day": 数字, "activities": [{"location": "地点名称", "type": "景点|餐厅|住宿", "description": "简短描述", "estimated_cost": 数字, "coordinates": {"latitude": 纬度, "longitude": 经度}}]}]}

这是用户的完整旅行需求描述:
%q

请仔细分析上述需求并开始规划。如果某个信息无法确定，请将其值设为 null。
`

const expensePromptTemplate = `
你是一个智能记账助手。你的任务是从用户提供的一段关于消费的自然语言描述中，提取出三个关键信息：'amount' (金额，必须是数字), 'category' (类别，从[%s]中选择一个最合适的), 和 'description' (具体描述)。
严格按照以下JSON格式返回，不要包含任何额外说明或` + "```json" + `标记。
JSON结构为: {"amount": 数字, "category": "预设类别", "description": "字符串"}
这是用户的消费描述:
%q
请提取信息。如果某个信息无法提取，请将其值设为 null。
`

// BuildPlanPrompt renders the full-itinerary instruction around the user's
// free-form trip description. The description is embedded verbatim.
func BuildPlanPrompt(req domain.TripRequest) string {
	return strings.TrimSpace(fmt.Sprintf(planPromptTemplate, req.Destination))
}

// BuildExpensePrompt renders the single-expense extraction instruction with
// the closed category set.
func BuildExpensePrompt(text string) string {
	categories := "'" + strings.Join(domain.ExpenseCategories, "', '") + "'"
	return strings.TrimSpace(fmt.Sprintf(expensePromptTemplate, categories, text))
}
