package manifests

import metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

// Имена ресурсов, разделяемые между стадиями.
const (
	PostgresVolumeName = "mastodon-postgres-pv"
	RedisVolumeName    = "mastodon-redis-pv"
	SystemVolumeName   = "mastodon-system-pv"

	PostgresClaimName = "mastodon-postgres"
	RedisClaimName    = "mastodon-redis"
	SystemClaimName   = "mastodon-system"

	PostgresServiceName  = "mastodon-postgres"
	RedisServiceName     = "mastodon-redis"
	WebServiceName       = "mastodon-web"
	StreamingServiceName = "mastodon-streaming"

	WebDeploymentName       = "mastodon-web"
	StreamingDeploymentName = "mastodon-streaming"
	SidekiqDeploymentName   = "mastodon-sidekiq"

	SecretsJobName = "mastodon-secrets"
	MigrateJobName = "mastodon-db-migrate"

	EnvSecretName = "mastodon-env"
	ConfigName    = "mastodon-config"
	IngressName   = "mastodon"
)

// Порты компонентов.
const (
	PostgresPort  = 5432
	RedisPort     = 6379
	WebPort       = 3000
	StreamingPort = 4000
)

// componentLabels возвращает стабильные метки для ресурсов компонента.
// По ним оркестратор находит поды Job'ов и удаляет ресурсы при откате.
func componentLabels(component string) map[string]string {
	return map[string]string{
		"app.kubernetes.io/part-of":    "mastodon",
		"app.kubernetes.io/component":  component,
		"app.kubernetes.io/managed-by": "mastokube",
	}
}

// objectMeta возвращает ObjectMeta с именем и метками компонента.
func objectMeta(name, component string) metav1.ObjectMeta {
	return metav1.ObjectMeta{
		Name:   name,
		Labels: componentLabels(component),
	}
}
