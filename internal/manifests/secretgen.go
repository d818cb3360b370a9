package manifests

import (
	"fmt"

	batchv1 "k8s.io/api/batch/v1"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	"github.com/shaiso/Mastokube/internal/config"
	"github.com/shaiso/Mastokube/internal/domain"
)

// Скрипт генерации секретов. Каждый требуемый ключ печатается в stdout
// строкой KEY=value — контракт, который разбирает ExtractSecrets.
// rake-таски vapid и db:encryption:init сами печатают строки в этом формате.
const secretGenScript = `set -e
export SECRET_KEY_BASE="$(bundle exec rake secret)"
export OTP_SECRET="$(bundle exec rake secret)"
echo "SECRET_KEY_BASE=$SECRET_KEY_BASE"
echo "OTP_SECRET=$OTP_SECRET"
bundle exec rake mastodon:webpush:generate_vapid_key
bundle exec rake db:encryption:init
`

// SecretGenJob возвращает Job стадии secret-generation.
//
// Job использует образ Mastodon и подключается к уже поднятой базе
// (стадия core-services), поэтому параметры подключения заданы
// прямо в спеке — ConfigMap приложения на этот момент ещё не существует.
func SecretGenJob(env *config.Environment) domain.Resource {
	backoffLimit := int32(1)

	job := &batchv1.Job{
		ObjectMeta: objectMeta(SecretsJobName, "secrets"),
		Spec: batchv1.JobSpec{
			BackoffLimit: &backoffLimit,
			Template: corev1.PodTemplateSpec{
				ObjectMeta: metav1.ObjectMeta{Labels: componentLabels("secrets")},
				Spec: corev1.PodSpec{
					RestartPolicy: corev1.RestartPolicyNever,
					Containers: []corev1.Container{
						{
							Name:    "secretgen",
							Image:   env.Images.Mastodon,
							Command: []string{"sh", "-c", secretGenScript},
							Env: []corev1.EnvVar{
								{Name: "RAILS_ENV", Value: "production"},
								{Name: "DB_HOST", Value: PostgresServiceName},
								{Name: "DB_PORT", Value: fmt.Sprintf("%d", PostgresPort)},
								{Name: "DB_USER", Value: postgresUser},
								{Name: "DB_NAME", Value: postgresDatabase},
								{Name: "REDIS_HOST", Value: RedisServiceName},
								{Name: "REDIS_PORT", Value: fmt.Sprintf("%d", RedisPort)},
							},
						},
					},
				},
			},
		},
	}

	return domain.Resource{
		Kind:   domain.KindJob,
		Name:   SecretsJobName,
		Object: job,
		Requires: []domain.Reference{
			{Kind: domain.KindService, Name: PostgresServiceName},
			{Kind: domain.KindService, Name: RedisServiceName},
		},
	}
}
