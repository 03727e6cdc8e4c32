package docs

// @title Reddit 购买意向监控 API
// @version 1.0
// @description 抓取 Reddit 帖子与评论，识别购买意向并生成个性化私信
// @termsOfService http://swagger.io/terms/

// @contact.name API Support
// @contact.url http://www.swagger.io/support
// @contact.email support@swagger.io

// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/LICENSE-2.0.html

// @host localhost:8080
// @BasePath /
// @schemes http https
